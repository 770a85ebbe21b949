// Package geocuritiba queries the GeoCuritiba ArcGIS services published
// by IPPUC: parcel lookup by registration number and zoning lookup by
// coordinate. This is the only official source in the resolution chain.
package geocuritiba

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/resilience"
	"github.com/guiamarela/zonecheck/internal/store"
)

// DefaultBaseURL is the public MapServer for the cadastral map.
const DefaultBaseURL = "https://geocuritiba.ippuc.org.br/server/rest/services/GeoCuritiba/Publico_GeoCuritiba_MapaCadastral/MapServer"

// ZoningLayer is the layer index holding zoning polygons.
const ZoningLayer = 36

// DefaultCacheTTL bounds how long lookup answers are reused. The
// cadastre changes slowly, a day is conservative.
const DefaultCacheTTL = 24 * time.Hour

// Client talks to the GeoCuritiba REST services.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      resilience.RetryConfig
	cache      store.Store
	cacheTTL   time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the MapServer endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithStore attaches a persistent lookup cache.
func WithStore(s store.Store) Option {
	return func(c *Client) { c.cache = s }
}

// WithCacheTTL overrides the lookup cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// New creates a GeoCuritiba client against the public endpoint.
func New(opts ...Option) *Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("geocuritiba", "query")
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry:      retry,
		cacheTTL:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET with retry and returns the raw response body.
// Transient HTTP statuses are surfaced as retryable errors.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocuritiba: build request")
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocuritiba: request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, eris.Wrap(err, "geocuritiba: read response")
		}
		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("geocuritiba: status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}
		return body, nil
	})
}

// getJSON performs a GET and decodes the response into out. ArcGIS
// reports failures inside a 200 body, so the error envelope is checked.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("f", "json")
	body, err := c.get(ctx, c.baseURL+endpoint+"?"+params.Encode())
	if err != nil {
		return err
	}

	if err := checkServiceError(body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "geocuritiba: decode response")
	}
	return nil
}

// checkServiceError detects ArcGIS failures reported inside a 200 body.
func checkServiceError(body []byte) error {
	var envelope struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		zap.L().Debug("geocuritiba: service error",
			zap.Int("code", envelope.Error.Code),
			zap.String("message", envelope.Error.Message),
		)
		return eris.Errorf("geocuritiba: service error %d: %s",
			envelope.Error.Code, envelope.Error.Message)
	}
	return nil
}
