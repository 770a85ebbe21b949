package resilience

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("parse failure"), false},
		{"transient wrapper", NewTransientError(errors.New("503"), 503), true},
		{"wrapped transient", fmt.Errorf("query: %w", NewTransientError(errors.New("503"), 503)), true},
		{"eris wrapped transient", eris.Wrap(NewTransientError(errors.New("503"), 503), "geocuritiba: query"), true},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"reset by message", errors.New("read tcp: connection reset by peer"), true},
		{"dns by message", errors.New("dial tcp: no such host"), true},
		{"io timeout by message", errors.New("Get \"https://example\": i/o timeout"), true},
		{"unrelated message", errors.New("zone not found"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner, 429)

	assert.Equal(t, "inner", te.Error())
	assert.True(t, errors.Is(te, inner))
	assert.Equal(t, 429, te.StatusCode)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
