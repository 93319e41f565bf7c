package geo

import (
	"context"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
	"golang.org/x/text/cases"

	"jinnarSearch/internal/cache"
	"jinnarSearch/internal/models"
)

const (
	DefaultSuggestTTL = 10 * time.Minute
	DefaultReverseTTL = 5 * time.Minute

	// ~150m cells: close enough that the same neighbourhood reuses a lookup.
	reversePrecision = 7
)

// Provider is the full geocoding surface used by the search page.
type Provider interface {
	Suggest(ctx context.Context, text string) ([]models.Suggestion, error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// CachedClient memoizes a Provider. Errors are never cached, and cache
// failures fall through to the provider.
type CachedClient struct {
	inner      Provider
	store      cache.Store
	suggestTTL time.Duration
	reverseTTL time.Duration
}

func NewCachedClient(inner Provider, store cache.Store, suggestTTL, reverseTTL time.Duration) *CachedClient {
	if suggestTTL <= 0 {
		suggestTTL = DefaultSuggestTTL
	}
	if reverseTTL <= 0 {
		reverseTTL = DefaultReverseTTL
	}
	return &CachedClient{inner: inner, store: store, suggestTTL: suggestTTL, reverseTTL: reverseTTL}
}

// SuggestKey normalizes text so "Dar Es  Salaam" and "dar es salaam" share
// an entry.
func SuggestKey(text string) string {
	return "suggest:" + cases.Fold().String(strings.Join(strings.Fields(text), " "))
}

func ReverseKey(lat, lng float64) string {
	return "reverse:" + geohash.EncodeWithPrecision(lat, lng, reversePrecision)
}

func (c *CachedClient) Suggest(ctx context.Context, text string) ([]models.Suggestion, error) {
	key := SuggestKey(text)
	if cached, ok, err := cache.GetJSON[[]models.Suggestion](ctx, c.store, key); err == nil && ok {
		return cached, nil
	}

	out, err := c.inner.Suggest(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(ctx, c.store, key, out, c.suggestTTL)
	return out, nil
}

func (c *CachedClient) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	if !ValidCoordinates(lat, lng) {
		return c.inner.Reverse(ctx, lat, lng)
	}

	key := ReverseKey(lat, lng)
	if cached, ok, err := cache.GetJSON[string](ctx, c.store, key); err == nil && ok && cached != "" {
		return cached, nil
	}

	address, err := c.inner.Reverse(ctx, lat, lng)
	if err != nil {
		return "", err
	}
	_ = cache.SetJSON(ctx, c.store, key, address, c.reverseTTL)
	return address, nil
}
