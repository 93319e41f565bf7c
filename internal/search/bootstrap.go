package search

import (
	"context"
	"net/http"
	"strings"

	"jinnarSearch/internal/cache"
	"jinnarSearch/internal/models"
	"jinnarSearch/internal/repositories"
	"jinnarSearch/internal/search/ambient"
	"jinnarSearch/internal/search/filters"
	"jinnarSearch/internal/search/geo"
	"jinnarSearch/internal/search/marketplace"
	"jinnarSearch/internal/search/session"
	"jinnarSearch/internal/search/suggest"
	"jinnarSearch/internal/search/ws"
	"jinnarSearch/internal/services"
)

// Module is the assembled search backend shared by the HTTP handlers and the
// WebSocket hub.
type Module struct {
	Marketplace *marketplace.Client
	Geocoder    geo.Provider
	Categories  *services.CategoryService
	Search      *services.SearchService
	SearchLog   *repositories.SearchLogRepository
	Hub         *ws.Hub
	Derive      filters.Options
	Ambient     ambient.Config
}

func ensureModule(deps *SearchDeps) (*Module, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if deps.module != nil {
		return deps.module, nil
	}
	cfg := deps.Config

	var store cache.Store
	if deps.RDB != nil {
		store = cache.NewRedisStore(deps.RDB, "jinnar:search:")
	} else {
		store = cache.NewMemoryStore()
	}

	market := marketplace.NewClient(deps.HTTPClient, cfg.Marketplace.BaseURL, cfg.MarketplaceTimeout())
	market.Observe(deps.Metrics.ObserveUpstream)

	geoClient := geo.NewClient(deps.HTTPClient, cfg.Geocode.BaseURL, cfg.Geocode.APIKey, cfg.Geocode.ReverseBaseURL)
	geoClient.Observe(deps.Metrics.ObserveUpstream)
	geocoder := geo.NewCachedClient(geoClient, store, geo.DefaultSuggestTTL, geo.DefaultReverseTTL)

	var searchLog *repositories.SearchLogRepository
	searchSvc := &services.SearchService{
		Gigs:   market,
		Logger: deps.Logger,
		OnResult: func(state models.ResultsState) {
			deps.Metrics.Search(string(state))
		},
	}
	if deps.DB != nil {
		searchLog = &repositories.SearchLogRepository{DB: deps.DB, Driver: cfg.Database.Driver}
		searchSvc.Log = searchLog
	}

	categories := &services.CategoryService{
		Client: market,
		Cache:  store,
		TTL:    cfg.CategoryCacheTTL(),
		Logger: deps.Logger,
	}

	derive := filters.Options{RadiusKm: cfg.Search.RadiusKm, Limit: cfg.Search.Limit}
	ambientCfg := ambient.Config{Timeout: cfg.LocationTimeout(), MaxAge: cfg.LocationMaxAge()}
	sessionCfg := session.Config{
		Derive: derive,
		Suggest: suggest.Config{
			Debounce:  cfg.Debounce(),
			MinLength: cfg.Search.MinLength,
			Timeout:   cfg.SuggestTimeout(),
		},
		Ambient: ambientCfg,
	}
	sessionDeps := session.Deps{
		Searcher: searchSvc,
		Geocoder: geocoder,
		Logger:   deps.Logger,
		OnStale:  deps.Metrics.StaleDiscard,
	}

	hub := ws.NewHub(func(id, viewerID, rawQuery string, emit func(session.Event)) *session.Controller {
		return session.New(id, viewerID, rawQuery, sessionDeps, sessionCfg, emit)
	}, deps.ViewerID, originChecker(cfg.Server.AllowedOrigins), deps.Logger)
	hub.OnOpen = deps.Metrics.SessionOpened
	hub.OnClose = deps.Metrics.SessionClosed

	deps.module = &Module{
		Marketplace: market,
		Geocoder:    geocoder,
		Categories:  categories,
		Search:      searchSvc,
		SearchLog:   searchLog,
		Hub:         hub,
		Derive:      derive,
		Ambient:     ambientCfg,
	}
	return deps.module, nil
}

// Init assembles the module once; later calls return the same instance.
func Init(deps *SearchDeps) (*Module, error) {
	return ensureModule(deps)
}

// PrepareStorage creates the search log table when a database is configured.
func PrepareStorage(ctx context.Context, deps *SearchDeps) error {
	module, err := ensureModule(deps)
	if err != nil {
		return err
	}
	if module.SearchLog == nil {
		deps.Logger.Infof("search log disabled: no database configured")
		return nil
	}
	return module.SearchLog.EnsureSchema(ctx)
}

// originChecker admits browsers from the CORS allow-list. Requests without
// an Origin header (CLI tools, tests) are accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
