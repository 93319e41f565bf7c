package main

import (
	"context"
	"errors"
	"log"
	"time"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/services"
)

const (
	searchLogCleanerInterval = time.Hour
	searchLogCleanerTimeout  = 30 * time.Second
)

func startSearchLogCleaner(ctx context.Context, svc *services.SearchService, retention time.Duration, infoLog, errorLog *log.Logger) {
	if svc == nil || svc.Log == nil || retention <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(searchLogCleanerInterval)
		defer ticker.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, searchLogCleanerTimeout)
			defer cancel()

			dropped, err := svc.PruneLog(runCtx, retention)
			if err != nil {
				if errorLog != nil && !errors.Is(err, models.ErrSearchLogDisabled) {
					errorLog.Printf("search log cleaner: failed to prune entries: %v", err)
				}
				return
			}
			if dropped > 0 && infoLog != nil {
				infoLog.Printf("search log cleaner: removed %d entries", dropped)
			}
		}

		run()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
