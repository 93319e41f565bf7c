package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jinnarSearch/internal/models"
)

const (
	suggestTimeout = 8 * time.Second
	reverseTimeout = 8 * time.Second
)

// Client talks to the autocomplete geocoder and the reverse geocoder.
type Client struct {
	httpClient  *http.Client
	geocodeBase string
	apiKey      string
	reverseBase string
	observe     func(upstream string, d time.Duration, err error)
}

// NewClient constructs a new geocoding client.
func NewClient(httpClient *http.Client, geocodeBase, apiKey, reverseBase string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpClient:  httpClient,
		geocodeBase: strings.TrimRight(geocodeBase, "/"),
		apiKey:      apiKey,
		reverseBase: reverseBase,
	}
}

// Observe registers a hook called after every upstream request.
func (c *Client) Observe(fn func(upstream string, d time.Duration, err error)) {
	c.observe = fn
}

// ValidCoordinates reports whether lat/lng are within WGS84 bounds.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ParseLatLng returns lat,lng if query looks like "lat,lng" (WGS84), otherwise (0,0,false).
func ParseLatLng(query string) (float64, float64, bool) {
	q := strings.TrimSpace(query)
	// Accept comma or semicolon separators
	sep := ","
	if strings.Contains(q, ";") {
		sep = ";"
	}
	parts := strings.Split(q, sep)
	if len(parts) != 2 {
		return 0, 0, false
	}

	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if !ValidCoordinates(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

// placeID accepts both numeric and string identifiers.
type placeID string

func (p *placeID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = placeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = placeID(n.String())
	return nil
}

// Suggest returns autocomplete entries for partial location text.
func (c *Client) Suggest(ctx context.Context, text string) (out []models.Suggestion, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("suggest: %w", models.ErrEmptyQuery)
	}

	started := time.Now()
	defer func() { c.record("geocode_suggest", started, err) }()

	// Per-call timeout
	ctx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", text)
	params.Set("api_key", c.apiKey)
	endpoint := fmt.Sprintf("%s/search?%s", c.geocodeBase, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("suggest: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggest: do request: %w", err)
	}
	defer resp.Body.Close()

	// The provider answers 404 when nothing matches.
	if resp.StatusCode == http.StatusNotFound {
		return []models.Suggestion{}, nil
	}
	if resp.StatusCode >= 300 {
		// Read small body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("suggest: http %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var payload []struct {
		PlaceID     placeID `json:"place_id"`
		DisplayName string  `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("suggest: decode: %w", err)
	}

	out = make([]models.Suggestion, 0, len(payload))
	for _, p := range payload {
		name := strings.TrimSpace(p.DisplayName)
		if name == "" {
			continue
		}
		out = append(out, models.Suggestion{PlaceID: string(p.PlaceID), DisplayName: name})
	}
	return out, nil
}

// FormatAddress joins the non-empty address parts with ", ".
func FormatAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// Reverse returns a display address for a coordinate pair.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (address string, err error) {
	if !ValidCoordinates(lat, lng) {
		return "", fmt.Errorf("reverse geocode: %w", models.ErrInvalidCoordinates)
	}

	started := time.Now()
	defer func() { c.record("geocode_reverse", started, err) }()

	ctx, cancel := context.WithTimeout(ctx, reverseTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("localityLanguage", "en")

	sep := "?"
	if strings.Contains(c.reverseBase, "?") {
		sep = "&"
	}
	endpoint := c.reverseBase + sep + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("reverse geocode: http %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var payload struct {
		Locality             string `json:"locality"`
		PrincipalSubdivision string `json:"principalSubdivision"`
		CountryName          string `json:"countryName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("reverse geocode: decode: %w", err)
	}

	address = FormatAddress(payload.Locality, payload.PrincipalSubdivision, payload.CountryName)
	if address == "" {
		return "", errors.New("reverse geocode: empty address")
	}
	return address, nil
}

func (c *Client) record(upstream string, started time.Time, err error) {
	if c.observe != nil {
		c.observe(upstream, time.Since(started), err)
	}
}
