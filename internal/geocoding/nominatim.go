package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// Resolver reverse geocodes a coordinate
type Resolver interface {
	Reverse(ctx context.Context, lat, lon float64) (models.Place, error)
}

// reverseResponse is the subset of the Nominatim jsonv2 reverse response we use
type reverseResponse struct {
	Error     string            `json:"error"`
	Name      string            `json:"name"`
	Category  string            `json:"category"`
	Type      string            `json:"type"`
	Address   map[string]string `json:"address"`
	Extratags map[string]string `json:"extratags"`
}

// HTTPResolver speaks the Nominatim reverse protocol
type HTTPResolver struct {
	baseURL   string
	userAgent string
	language  string
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTPResolver creates a resolver; client may be nil
func NewHTTPResolver(baseURL, userAgent string, client *http.Client, logger *slog.Logger) *HTTPResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPResolver{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		language:  "en",
		client:    client,
		logger:    logger,
	}
}

// Reverse implements Resolver
func (h *HTTPResolver) Reverse(ctx context.Context, lat, lon float64) (models.Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")
	q.Set("extratags", "1")
	q.Set("accept-language", h.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return models.Place{}, err
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	h.logger.Debug("geocoder_req", "lat", lat, "lon", lon)
	resp, err := h.client.Do(req)
	if err != nil {
		return models.Place{}, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Place{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var r reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Place{}, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if r.Error != "" {
		return models.Place{}, fmt.Errorf("%w: %s", ErrNoResult, r.Error)
	}

	place := placeFromResponse(r)
	if place == (models.Place{}) {
		return models.Place{}, ErrNoResult
	}
	return place, nil
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(m[k]); v != "" {
			return v
		}
	}
	return ""
}

// poiClasses are the Nominatim categories treated as points of interest
var poiClasses = map[string]bool{
	"amenity": true, "tourism": true, "leisure": true, "historic": true, "shop": true, "building": true,
}

// religionCategories maps the OSM religion tag to a worship sub-category
var religionCategories = map[string]string{
	"muslim":    "mosque",
	"christian": "church",
	"jewish":    "synagogue",
	"buddhist":  "temple",
	"hindu":     "temple",
	"shinto":    "temple",
}

func placeFromResponse(r reverseResponse) models.Place {
	a := r.Address
	p := models.Place{
		City:        first(a, "city", "town", "province", "state", "village"),
		District:    first(a, "city_district", "district", "borough", "county", "suburb"),
		Country:     first(a, "country"),
		CountryCode: strings.ToUpper(first(a, "country_code")),
	}
	if p.District == p.City {
		p.District = ""
	}

	if poiClasses[r.Category] && r.Name != "" {
		p.POIName = r.Name
		p.POICategory = r.Type
		if r.Type == "place_of_worship" {
			if cat, ok := religionCategories[strings.ToLower(r.Extratags["religion"])]; ok {
				p.POICategory = cat
			}
		}
	}
	return p
}
