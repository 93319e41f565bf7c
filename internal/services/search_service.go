package services

import (
	"context"
	"strings"
	"time"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/filters"
)

const (
	searchLogTimeout     = 2 * time.Second
	DefaultPopularWindow = 7 * 24 * time.Hour
	MaxPopularLimit      = 50
)

type GigSearcher interface {
	SearchGigs(ctx context.Context, q filters.Query) ([]models.Gig, error)
}

type SearchLogStore interface {
	Insert(ctx context.Context, entry models.SearchLogEntry) (models.SearchLogEntry, error)
	Popular(ctx context.Context, since time.Time, limit int) ([]models.PopularSearch, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchMeta identifies who ran a search. Both fields may be empty.
type SearchMeta struct {
	ViewerID  string
	SessionID string
}

type SearchService struct {
	Gigs   GigSearcher
	Log    SearchLogStore
	Logger Logger
	// OnResult, if set, receives the results view state of every search.
	OnResult func(state models.ResultsState)

	now func() time.Time
}

func (s *SearchService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Search fetches gigs for q and records the search. Recording failures are
// logged and never returned. A search abandoned by its caller is not
// reported through OnResult.
func (s *SearchService) Search(ctx context.Context, q filters.Query, meta SearchMeta) ([]models.Gig, error) {
	gigs, err := s.Gigs.SearchGigs(ctx, q)
	if s.OnResult != nil && ctx.Err() == nil {
		s.OnResult(models.NewResultsView(gigs, err).State)
	}
	if err != nil {
		return nil, err
	}

	if s.Log != nil {
		logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), searchLogTimeout)
		defer cancel()
		_, logErr := s.Log.Insert(logCtx, models.SearchLogEntry{
			ViewerID:    meta.ViewerID,
			SessionID:   meta.SessionID,
			Query:       q.Encode(),
			ResultCount: len(gigs),
			CreatedAt:   s.clock().UTC(),
		})
		if logErr != nil {
			logErrorf(s.Logger, "search log insert: %v", logErr)
		}
	}
	return gigs, nil
}

// Popular lists the most frequent committed queries within window.
func (s *SearchService) Popular(ctx context.Context, window time.Duration, limit int) ([]models.PopularSearch, error) {
	if s.Log == nil {
		return nil, models.ErrSearchLogDisabled
	}
	if window <= 0 {
		window = DefaultPopularWindow
	}
	if limit <= 0 || limit > MaxPopularLimit {
		limit = 10
	}

	items, err := s.Log.Popular(ctx, s.clock().Add(-window), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.PopularSearch, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Query) == "" {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// PruneLog drops search log entries older than retention.
func (s *SearchService) PruneLog(ctx context.Context, retention time.Duration) (int64, error) {
	if s.Log == nil {
		return 0, models.ErrSearchLogDisabled
	}
	return s.Log.DeleteBefore(ctx, s.clock().Add(-retention))
}
