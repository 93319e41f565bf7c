package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/geo"
)

type GeocodeHandler struct {
	Geocoder geo.Provider
}

// Suggest returns location autocomplete entries for ?q=. Typed coordinates
// ("lat,lng") are reverse geocoded instead of searched.
func (h *GeocodeHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "Missing q", http.StatusBadRequest)
		return
	}

	if lat, lng, ok := geo.ParseLatLng(q); ok {
		address, err := h.Geocoder.Reverse(r.Context(), lat, lng)
		if err != nil {
			writeJSON(w, http.StatusOK, []models.Suggestion{})
			return
		}
		writeJSON(w, http.StatusOK, []models.Suggestion{{
			PlaceID:     strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64),
			DisplayName: address,
		}})
		return
	}

	suggestions, err := h.Geocoder.Suggest(r.Context(), q)
	if err != nil {
		http.Error(w, "Failed to load suggestions", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := parseCoordinates(r, "latitude", "longitude")
	if !ok || !geo.ValidCoordinates(lat, lng) {
		http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		return
	}

	address, err := h.Geocoder.Reverse(r.Context(), lat, lng)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCoordinates) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to resolve address", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, models.AmbientLocation{Latitude: lat, Longitude: lng, ResolvedAddress: address})
}
