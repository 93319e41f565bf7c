package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"jinnarSearch/internal/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	sugar := logger.Sugar()
	infoLog := zap.NewStdLog(logger)
	errorLog, err := zap.NewStdLogAt(logger, zap.ErrorLevel)
	if err != nil {
		sugar.Fatalf("error logger: %v", err)
	}

	if err := godotenv.Load(); err != nil {
		sugar.Infof("no .env file loaded: %v", err)
	}

	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		sugar.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		sugar.Fatalf("open database: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		sugar.Fatalf("connect redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	app, err := initializeApp(ctx, cfg, db, rdb, sugar, infoLog, errorLog)
	if err != nil {
		sugar.Fatalf("initialize app: %v", err)
	}

	startSearchLogCleaner(ctx, app.searchService, cfg.LogRetention(), infoLog, errorLog)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
	})

	// Search sockets are long-lived; their deadlines are managed by the hub.
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errorLog.Printf("shutdown: %v", err)
		}
	}()

	infoLog.Printf("Starting server on %s", cfg.Server.Address)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errorLog.Fatal(err)
	}
}
