package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, requestContext)
	jsonMiddleware := standardMiddleware.Append(makeResponseJSON)

	mux := pat.New()

	// Search
	mux.Get("/search/url", app.instrument("search_url", jsonMiddleware.ThenFunc(app.searchHandler.CommitURL)))
	mux.Get("/search/derive", app.instrument("search_derive", jsonMiddleware.ThenFunc(app.searchHandler.DeriveQuery)))
	mux.Get("/search/gigs", app.instrument("search_gigs", jsonMiddleware.ThenFunc(app.searchHandler.SearchGigs)))
	mux.Get("/search/popular", app.instrument("search_popular", jsonMiddleware.ThenFunc(app.searchHandler.Popular)))

	// Categories
	mux.Get("/categories", app.instrument("categories", jsonMiddleware.ThenFunc(app.categoryHandler.GetAllCategories)))
	mux.Get("/categories/:id/subcategories", app.instrument("subcategories", jsonMiddleware.ThenFunc(app.categoryHandler.GetSubcategories)))

	// Geocoding
	mux.Get("/geocode/suggest", app.instrument("geocode_suggest", jsonMiddleware.ThenFunc(app.geocodeHandler.Suggest)))
	mux.Get("/geocode/reverse", app.instrument("geocode_reverse", jsonMiddleware.ThenFunc(app.geocodeHandler.Reverse)))

	// Live search page sessions
	mux.Get("/ws/search", app.instrument("ws_search", standardMiddleware.ThenFunc(app.hub.ServeWS)))

	mux.Get("/healthz", jsonMiddleware.ThenFunc(app.healthz))
	mux.Get("/metrics", app.metrics.Handler())

	return mux
}

func (app *application) instrument(route string, next http.Handler) http.Handler {
	return app.metrics.Instrument(route, next)
}
