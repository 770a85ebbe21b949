package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var cepPattern = regexp.MustCompile(`(\d{5})-?(\d{3})`)

// ViaCEPProvider resolves addresses that carry a postal code. ViaCEP
// validates that the CEP belongs to Curitiba and returns the official
// street name, which is then geocoded by the inner provider. Addresses
// without a CEP are passed over.
type ViaCEPProvider struct {
	baseURL    string
	httpClient *http.Client
	inner      Provider
}

// ViaCEPOption configures the provider.
type ViaCEPOption func(*ViaCEPProvider)

// WithViaCEPBaseURL overrides the API endpoint, used by tests.
func WithViaCEPBaseURL(u string) ViaCEPOption {
	return func(p *ViaCEPProvider) { p.baseURL = u }
}

// WithViaCEPHTTPClient sets a custom HTTP client.
func WithViaCEPHTTPClient(hc *http.Client) ViaCEPOption {
	return func(p *ViaCEPProvider) { p.httpClient = hc }
}

// NewViaCEP creates a ViaCEPProvider that re-geocodes the canonical
// street name through inner.
func NewViaCEP(inner Provider, opts ...ViaCEPOption) *ViaCEPProvider {
	p := &ViaCEPProvider{
		baseURL:    "https://viacep.com.br",
		httpClient: newHTTPClient(),
		inner:      inner,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *ViaCEPProvider) Name() string { return "viacep" }

// Available implements Provider.
func (p *ViaCEPProvider) Available() bool { return p.inner != nil }

type viaCEPResponse struct {
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	Erro       bool   `json:"erro,omitempty"`
}

// Geocode implements Provider.
func (p *ViaCEPProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	m := cepPattern.FindStringSubmatch(address)
	if m == nil {
		return &Result{Matched: false, Source: p.Name()}, nil
	}
	cep := m[1] + m[2]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/ws/%s/json/", p.baseURL, cep), nil)
	if err != nil {
		return nil, eris.Wrap(err, "viacep: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "viacep: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("viacep: status %d", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "viacep: decode response")
	}
	if body.Erro || body.Logradouro == "" {
		return &Result{Matched: false, Source: p.Name()}, nil
	}
	if !strings.EqualFold(strings.TrimSpace(body.Localidade), "curitiba") {
		zap.L().Debug("viacep: CEP outside Curitiba",
			zap.String("cep", cep),
			zap.String("localidade", body.Localidade),
		)
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	canonical := body.Logradouro
	if body.Bairro != "" {
		canonical += ", " + body.Bairro
	}
	inner, err := p.inner.Geocode(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if inner == nil || !inner.Matched {
		return &Result{Matched: false, Source: p.Name()}, nil
	}
	return &Result{Lat: inner.Lat, Lon: inner.Lon, Source: p.Name(), Matched: true}, nil
}
