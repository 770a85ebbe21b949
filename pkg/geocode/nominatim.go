package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NominatimProvider geocodes via the OpenStreetMap Nominatim API. The
// public instance requires an identifying User-Agent and at most one
// request per second.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NominatimOption configures the provider.
type NominatimOption func(*NominatimProvider)

// WithNominatimBaseURL overrides the API endpoint, used by tests.
func WithNominatimBaseURL(u string) NominatimOption {
	return func(p *NominatimProvider) { p.baseURL = u }
}

// WithNominatimHTTPClient sets a custom HTTP client.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(p *NominatimProvider) { p.httpClient = hc }
}

// WithNominatimRateLimit sets the requests-per-second limit.
func WithNominatimRateLimit(rps float64) NominatimOption {
	return func(p *NominatimProvider) { p.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewNominatim creates a NominatimProvider with the public endpoint and
// the usage-policy rate limit of 1 req/s.
func NewNominatim(opts ...NominatimOption) *NominatimProvider {
	p := &NominatimProvider{
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  defaultUserAgent,
		httpClient: newHTTPClient(),
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Available implements Provider.
func (p *NominatimProvider) Available() bool { return true }

type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode implements Provider.
func (p *NominatimProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit wait")
	}

	q := url.Values{}
	q.Set("q", withCityContext(address, ", Curitiba, Paraná, Brazil"))
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: status %d", resp.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}
	if len(hits) == 0 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	lat, latErr := strconv.ParseFloat(hits[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(hits[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		zap.L().Debug("nominatim: unparsable coordinates",
			zap.String("lat", hits[0].Lat),
			zap.String("lon", hits[0].Lon),
		)
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	return &Result{Lat: lat, Lon: lon, Source: p.Name(), Matched: true}, nil
}
