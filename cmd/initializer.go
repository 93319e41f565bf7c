package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jinnarSearch/internal/config"
	"jinnarSearch/internal/handlers"
	"jinnarSearch/internal/metrics"
	"jinnarSearch/internal/repositories"
	"jinnarSearch/internal/search"
	"jinnarSearch/internal/search/ws"
	"jinnarSearch/internal/services"
	"jinnarSearch/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	logger   *zap.SugaredLogger

	searchHandler   *handlers.SearchHandler
	categoryHandler *handlers.CategoryHandler
	geocodeHandler  *handlers.GeocodeHandler
	searchService   *services.SearchService
	hub             *ws.Hub
	metrics         *metrics.Manager
}

func initializeApp(ctx context.Context, cfg config.Config, db *sql.DB, rdb *redis.Client, logger *zap.SugaredLogger, infoLog, errorLog *log.Logger) (*application, error) {
	tokens, err := utils.NewManager(cfg.Auth.SigningKey)
	if err != nil {
		logger.Infof("viewer tokens disabled: %v", err)
	}

	deps := &search.SearchDeps{
		DB:     db,
		RDB:    rdb,
		Logger: logger,
		Config: cfg,
		ViewerID: func(r *http.Request) string {
			return tokens.ViewerFromHeader(r.Header.Get("Authorization"))
		},
	}
	module, err := search.Init(deps)
	if err != nil {
		return nil, err
	}
	if err := search.PrepareStorage(ctx, deps); err != nil {
		return nil, fmt.Errorf("prepare search log: %w", err)
	}

	return &application{
		errorLog: errorLog,
		infoLog:  infoLog,
		logger:   logger,
		searchHandler: &handlers.SearchHandler{
			Service:  module.Search,
			Geocoder: module.Geocoder,
			Derive:   module.Derive,
			Ambient:  module.Ambient,
			ViewerID: deps.ViewerID,
		},
		categoryHandler: &handlers.CategoryHandler{Service: module.Categories},
		geocodeHandler:  &handlers.GeocodeHandler{Geocoder: module.Geocoder},
		searchService:   module.Search,
		hub:             module.Hub,
		metrics:         deps.Metrics,
	}, nil
}

// openDB returns nil when no database is configured; the search log is then
// disabled.
func openDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, nil
	}
	if driver == repositories.DriverMySQL {
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc.ParseTime = true
		dsn = mc.FormatDSN()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxIdleConns(35)
	return db, nil
}

func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
