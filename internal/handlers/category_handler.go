package handlers

import (
	"errors"
	"net/http"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/services"
)

type CategoryHandler struct {
	Service *services.CategoryService
}

func (h *CategoryHandler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.GetAllCategories(r.Context())
	if err != nil {
		http.Error(w, "Failed to load categories", upstreamStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) GetSubcategories(w http.ResponseWriter, r *http.Request) {
	id := getParam(r, "id")
	if id == "" {
		http.Error(w, "Missing category ID", http.StatusBadRequest)
		return
	}

	subcategories, err := h.Service.GetSubcategories(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrCategoryRequired):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrCategoryNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to load subcategories", upstreamStatus(err))
		}
		return
	}

	writeJSON(w, http.StatusOK, subcategories)
}

// getParam reads a route parameter. pat stores them in the query with a
// leading colon; ServeMux patterns expose them through PathValue.
func getParam(r *http.Request, name string) string {
	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}
	return r.PathValue(name)
}
