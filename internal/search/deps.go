package search

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"jinnarSearch/internal/config"
	"jinnarSearch/internal/metrics"
)

// Logger provides minimal logging required by the search module.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// SearchDeps groups external dependencies needed by the search module. DB
// and RDB are optional: without a database the search log is off, without
// Redis caches live in process memory.
type SearchDeps struct {
	DB         *sql.DB
	RDB        *redis.Client
	Logger     Logger
	Config     config.Config
	HTTPClient *http.Client
	Metrics    *metrics.Manager
	ViewerID   func(r *http.Request) string
	module     *Module
}

// Validate ensures required dependencies are provided.
func (d *SearchDeps) Validate() error {
	if d.Logger == nil {
		return errors.New("search deps: Logger is required")
	}
	if d.Config.Marketplace.BaseURL == "" {
		return errors.New("search deps: marketplace base url is required")
	}
	if d.HTTPClient == nil {
		d.HTTPClient = http.DefaultClient
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewManager("jinnar_search")
	}
	return nil
}
