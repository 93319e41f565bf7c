package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jinnarSearch/internal/search/marketplace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseCoordinates reads a coordinate pair from two query parameters. Both
// must be present and parse as floats.
func parseCoordinates(r *http.Request, latKey, lngKey string) (float64, float64, bool) {
	latStr := strings.TrimSpace(r.URL.Query().Get(latKey))
	lngStr := strings.TrimSpace(r.URL.Query().Get(lngKey))
	if latStr == "" || lngStr == "" {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

func intQuery(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// upstreamStatus propagates marketplace 4xx answers and maps every other
// failure to 502.
func upstreamStatus(err error) int {
	var apiErr *marketplace.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}
