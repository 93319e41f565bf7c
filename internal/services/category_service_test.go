package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinnarSearch/internal/cache"
	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/marketplace"
)

type stubCategoryClient struct {
	calls   atomic.Int32
	release chan struct{}
	subErr  error
}

func (s *stubCategoryClient) Categories(ctx context.Context) ([]models.Category, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	return []models.Category{{ID: "c1", Name: "Cleaning"}}, nil
}

func (s *stubCategoryClient) Subcategories(ctx context.Context, categoryID string) ([]models.Subcategory, error) {
	s.calls.Add(1)
	if s.subErr != nil {
		return nil, s.subErr
	}
	return []models.Subcategory{{ID: "s1", CategoryID: categoryID, Name: "Windows"}}, nil
}

func TestCategoryServiceCachesAndCollapses(t *testing.T) {
	client := &stubCategoryClient{release: make(chan struct{})}
	svc := &CategoryService{Client: client, Cache: cache.NewMemoryStore(), TTL: time.Minute}

	var wg sync.WaitGroup
	results := make([][]models.Category, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cats, err := svc.GetAllCategories(context.Background())
			assert.NoError(t, err)
			results[i] = cats
		}(i)
	}

	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	close(client.release)
	wg.Wait()

	for _, cats := range results {
		assert.Equal(t, []models.Category{{ID: "c1", Name: "Cleaning"}}, cats)
	}

	_, err := svc.GetAllCategories(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, client.calls.Load(), int32(5))

	before := client.calls.Load()
	_, err = svc.GetAllCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, client.calls.Load(), "cached lookups must not reach the client")
}

func TestCategoryServiceSubcategories(t *testing.T) {
	svc := &CategoryService{Client: &stubCategoryClient{}, Cache: cache.NewMemoryStore()}

	subs, err := svc.GetSubcategories(context.Background(), " c9 ")
	require.NoError(t, err)
	assert.Equal(t, []models.Subcategory{{ID: "s1", CategoryID: "c9", Name: "Windows"}}, subs)

	_, err = svc.GetSubcategories(context.Background(), "")
	assert.True(t, errors.Is(err, models.ErrCategoryRequired))

	svc = &CategoryService{Client: &stubCategoryClient{subErr: &marketplace.APIError{StatusCode: http.StatusNotFound}}}
	_, err = svc.GetSubcategories(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrCategoryNotFound))

	upstream := errors.New("boom")
	svc = &CategoryService{Client: &stubCategoryClient{subErr: upstream}}
	_, err = svc.GetSubcategories(context.Background(), "c1")
	assert.True(t, errors.Is(err, upstream))
}
