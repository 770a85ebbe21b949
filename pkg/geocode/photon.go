package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// PhotonProvider geocodes via the Komoot Photon API, a keyless
// OpenStreetMap frontend used as the last resort of the cascade.
type PhotonProvider struct {
	baseURL    string
	httpClient *http.Client
}

// PhotonOption configures the provider.
type PhotonOption func(*PhotonProvider)

// WithPhotonBaseURL overrides the API endpoint, used by tests.
func WithPhotonBaseURL(u string) PhotonOption {
	return func(p *PhotonProvider) { p.baseURL = u }
}

// WithPhotonHTTPClient sets a custom HTTP client.
func WithPhotonHTTPClient(hc *http.Client) PhotonOption {
	return func(p *PhotonProvider) { p.httpClient = hc }
}

// NewPhoton creates a PhotonProvider against the public endpoint.
func NewPhoton(opts ...PhotonOption) *PhotonProvider {
	p := &PhotonProvider{
		baseURL:    "https://photon.komoot.io",
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *PhotonProvider) Name() string { return "photon" }

// Available implements Provider.
func (p *PhotonProvider) Available() bool { return true }

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode implements Provider.
func (p *PhotonProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	q := url.Values{}
	q.Set("q", withCityContext(address, ", Curitiba, Brazil"))
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "photon: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "photon: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("photon: status %d", resp.StatusCode)
	}

	var body photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "photon: decode response")
	}
	if len(body.Features) == 0 || len(body.Features[0].Geometry.Coordinates) < 2 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	coords := body.Features[0].Geometry.Coordinates
	return &Result{Lat: coords[1], Lon: coords[0], Source: p.Name(), Matched: true}, nil
}
