package handlers

import (
	"errors"
	"net/http"
	"time"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/ambient"
	"jinnarSearch/internal/search/filters"
	"jinnarSearch/internal/services"
)

type SearchHandler struct {
	Service  *services.SearchService
	Geocoder ambient.ReverseGeocoder
	Derive   filters.Options
	Ambient  ambient.Config
	ViewerID func(r *http.Request) string
}

type deriveResponse struct {
	Committed filters.Committed `json:"committed"`
	URLQuery  string            `json:"url_query"`
	Query     filters.Query     `json:"query"`
	Ambient   ambient.Snapshot  `json:"ambient"`
}

type gigsResponse struct {
	models.ResultsView
	Query filters.Query `json:"query"`
}

// CommitURL builds the page query string from draft fields given by name
// (?searchTerm=...&categoryId=...). Fields are applied in a fixed order so
// the category cascade behaves the same as in the page.
func (h *SearchHandler) CommitURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	store := filters.NewStore(filters.Draft{})
	for _, field := range filters.Fields {
		if !q.Has(string(field)) {
			continue
		}
		if _, err := store.SetField(field, q.Get(string(field))); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	committed, raw := filters.Commit(store.Draft())
	writeJSON(w, http.StatusOK, map[string]any{
		"url_query": raw,
		"committed": committed,
	})
}

// DeriveQuery shows what the page would request for a URL, with the ambient
// location taken from optional lat/lng parameters.
func (h *SearchHandler) DeriveQuery(w http.ResponseWriter, r *http.Request) {
	committed, snap, query := h.derive(r)
	writeJSON(w, http.StatusOK, deriveResponse{
		Committed: committed,
		URLQuery:  filters.Encode(committed.Draft()).Encode(),
		Query:     query,
		Ambient:   snap,
	})
}

// SearchGigs runs the search for a URL. An empty result is a 200 with state
// "empty"; an upstream failure is a 502 with state "error".
func (h *SearchHandler) SearchGigs(w http.ResponseWriter, r *http.Request) {
	_, _, query := h.derive(r)

	var viewer string
	if h.ViewerID != nil {
		viewer = h.ViewerID(r)
	}

	gigs, err := h.Service.Search(r.Context(), query, services.SearchMeta{ViewerID: viewer})
	status := http.StatusOK
	if err != nil {
		status = upstreamStatus(err)
	}
	writeJSON(w, status, gigsResponse{ResultsView: models.NewResultsView(gigs, err), Query: query})
}

func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 10)
	window := time.Duration(intQuery(r, "days", 7)) * 24 * time.Hour

	items, err := h.Service.Popular(r.Context(), window, limit)
	if err != nil {
		if errors.Is(err, models.ErrSearchLogDisabled) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Failed to load popular searches", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *SearchHandler) derive(r *http.Request) (filters.Committed, ambient.Snapshot, filters.Query) {
	committed := filters.Parse(r.URL.Query())

	src := ambient.StaticSource{}
	if lat, lng, ok := parseCoordinates(r, "lat", "lng"); ok {
		src = ambient.StaticSource{Latitude: lat, Longitude: lng, Granted: true}
	}

	resolver := ambient.NewResolver(h.Geocoder, h.Ambient, nil)
	resolver.Start(r.Context(), src, nil)
	snap := resolver.Wait(r.Context())

	return committed, snap, filters.DeriveQuery(committed, snap.Address(), h.Derive)
}
