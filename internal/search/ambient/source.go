package ambient

import (
	"context"
	"sync"
	"time"

	"jinnarSearch/internal/models"
)

// StaticSource is a position already known to the caller, e.g. lat/lng
// query parameters on a page load.
type StaticSource struct {
	Latitude  float64
	Longitude float64
	Granted   bool
}

func (s StaticSource) CurrentPosition(ctx context.Context, _ time.Duration) (float64, float64, error) {
	if !s.Granted {
		return 0, 0, models.ErrPermissionDenied
	}
	return s.Latitude, s.Longitude, nil
}

type position struct {
	lat, lng float64
	err      error
}

// PromptSource waits for the browser to answer a geolocation prompt. The
// first answer wins; later ones are ignored.
type PromptSource struct {
	ch   chan position
	once sync.Once
}

func NewPromptSource() *PromptSource {
	return &PromptSource{ch: make(chan position, 1)}
}

func (p *PromptSource) Provide(lat, lng float64) {
	p.answer(position{lat: lat, lng: lng})
}

func (p *PromptSource) Deny() {
	p.answer(position{err: models.ErrPermissionDenied})
}

func (p *PromptSource) answer(pos position) {
	p.once.Do(func() { p.ch <- pos })
}

func (p *PromptSource) CurrentPosition(ctx context.Context, _ time.Duration) (float64, float64, error) {
	select {
	case pos := <-p.ch:
		return pos.lat, pos.lng, pos.err
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
}
