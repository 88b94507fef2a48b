package geo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

// NewGoogleClient builds a Maps API client. baseURL overrides the API host
// and is meant for tests; pass "" for the real service.
func NewGoogleClient(apiKey, baseURL string, httpClient *http.Client) (*maps.Client, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(httpClient))
	}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating google maps client: %w", err)
	}
	return client, nil
}

// GoogleGeocoder describes locations with the Google Geocoding API.
type GoogleGeocoder struct {
	client   *maps.Client
	limiter  *rate.Limiter
	language string
	region   string
	logger   *slog.Logger
}

// NewGoogleGeocoder creates a geocoder. Every API call waits for limiter.
func NewGoogleGeocoder(client *maps.Client, limiter *rate.Limiter, language, region string, logger *slog.Logger) *GoogleGeocoder {
	return &GoogleGeocoder{
		client:   client,
		limiter:  limiter,
		language: language,
		region:   region,
		logger:   logger,
	}
}

// Geocode returns "region, country" for text, leaving out empty parts.
//
// Street-level input sometimes resolves to a point without an administrative
// region. When that happens and the text looks like an address (contains a
// comma), the point is reverse geocoded to find the region.
func (g *GoogleGeocoder) Geocode(ctx context.Context, text string) (string, error) {
	query := ASCII(text)
	g.logger.Info("geocoding", "text", text, "query", query)

	results, err := g.call(ctx, &maps.GeocodingRequest{
		Address:  query,
		Language: g.language,
		Region:   g.region,
	}, false)
	if err != nil {
		return "", fmt.Errorf("geocode %q: %w", text, err)
	}

	region, country, point, ok := describe(results)
	if region == "" && ok && strings.Contains(text, ",") {
		results, err = g.call(ctx, &maps.GeocodingRequest{
			LatLng:   &point,
			Language: g.language,
			Region:   g.region,
		}, true)
		if err != nil {
			return "", fmt.Errorf("reverse geocode %q: %w", text, err)
		}
		region, country, _, _ = describe(results)
	}

	parts := slices.DeleteFunc([]string{region, country}, func(s string) bool { return s == "" })
	return strings.Join(parts, ", "), nil
}

func (g *GoogleGeocoder) call(ctx context.Context, req *maps.GeocodingRequest, reverse bool) ([]maps.GeocodingResult, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if reverse {
		return g.client.ReverseGeocode(ctx, req)
	}
	return g.client.Geocode(ctx, req)
}

// describe extracts the region, country and coordinates of the best result.
func describe(results []maps.GeocodingResult) (region, country string, point maps.LatLng, ok bool) {
	if len(results) == 0 {
		return "", "", maps.LatLng{}, false
	}
	best := results[0]

	var state, locality string
	for _, c := range best.AddressComponents {
		switch {
		case slices.Contains(c.Types, "administrative_area_level_1"):
			state = c.LongName
		case slices.Contains(c.Types, "locality"):
			locality = c.LongName
		case slices.Contains(c.Types, "country"):
			country = c.LongName
		}
	}
	region = state
	if region == "" {
		region = locality
	}
	return region, country, best.Geometry.Location, true
}

// ASCII transliterates text to ASCII, e.g. "Nový dvůr" becomes "Novy dvur"
// and "Łódź" becomes "Lodz".
func ASCII(text string) string {
	return unidecode.Unidecode(text)
}
