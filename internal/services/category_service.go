package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"jinnarSearch/internal/cache"
	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/marketplace"
)

const DefaultCategoryTTL = 10 * time.Minute

type CategoryClient interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Subcategories(ctx context.Context, categoryID string) ([]models.Subcategory, error)
}

// CategoryService serves the filter panel's category lists from cache,
// collapsing concurrent misses into one upstream call.
type CategoryService struct {
	Client CategoryClient
	Cache  cache.Store
	TTL    time.Duration
	Logger Logger

	group singleflight.Group
}

func (s *CategoryService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultCategoryTTL
	}
	return s.TTL
}

func (s *CategoryService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return loadCached(ctx, s, "categories", func(ctx context.Context) ([]models.Category, error) {
		return s.Client.Categories(ctx)
	})
}

func (s *CategoryService) GetSubcategories(ctx context.Context, categoryID string) ([]models.Subcategory, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, models.ErrCategoryRequired
	}

	subs, err := loadCached(ctx, s, "subcategories:"+categoryID, func(ctx context.Context) ([]models.Subcategory, error) {
		return s.Client.Subcategories(ctx, categoryID)
	})
	var apiErr *marketplace.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, models.ErrCategoryNotFound
	}
	return subs, err
}

func loadCached[T any](ctx context.Context, s *CategoryService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.Cache != nil {
		cached, ok, err := cache.GetJSON[[]T](ctx, s.Cache, key)
		if err != nil {
			logErrorf(s.Logger, "category cache get %s: %v", key, err)
		}
		if ok {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Shared by every waiter, so it must outlive the first caller.
		items, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if s.Cache != nil {
			if err := cache.SetJSON(ctx, s.Cache, key, items, s.ttl()); err != nil {
				logErrorf(s.Logger, "category cache set %s: %v", key, err)
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}
