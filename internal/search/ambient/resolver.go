package ambient

import (
	"context"
	"sync"
	"time"

	"jinnarSearch/internal/models"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxAge  = 5 * time.Minute

	HintEnableLocation = "enable location for nearby results"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusGranted Status = "granted"
	StatusDenied  Status = "denied"
)

// PositionSource produces the device position once. maxAge is the oldest
// cached fix the caller accepts.
type PositionSource interface {
	CurrentPosition(ctx context.Context, maxAge time.Duration) (lat, lng float64, err error)
}

// ReverseGeocoder turns coordinates into a display address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Logger provides minimal logging required by the resolver.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type Config struct {
	Timeout time.Duration
	MaxAge  time.Duration
}

// Snapshot is the resolver state visible to the page.
type Snapshot struct {
	Status   Status                  `json:"status"`
	Location *models.AmbientLocation `json:"location,omitempty"`
	Hint     string                  `json:"hint,omitempty"`
}

// Address returns the resolved address, or "" while loading or when denied.
func (s Snapshot) Address() string {
	if s.Status != StatusGranted || s.Location == nil {
		return ""
	}
	return s.Location.ResolvedAddress
}

// Resolver performs a single best-effort location lookup per page visit. It
// never retries and never blocks callers: Snapshot reports loading until the
// lookup settles.
type Resolver struct {
	geocoder ReverseGeocoder
	cfg      Config
	logger   Logger

	once sync.Once
	done chan struct{}

	mu   sync.RWMutex
	snap Snapshot
}

func NewResolver(geocoder ReverseGeocoder, cfg Config, logger Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Resolver{
		geocoder: geocoder,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
		snap:     Snapshot{Status: StatusLoading},
	}
}

// Start launches the lookup in the background. Only the first call has any
// effect. onSettled, if set, is called once with the final snapshot.
func (r *Resolver) Start(ctx context.Context, src PositionSource, onSettled func(Snapshot)) {
	r.once.Do(func() {
		go r.resolve(ctx, src, onSettled)
	})
}

func (r *Resolver) resolve(ctx context.Context, src PositionSource, onSettled func(Snapshot)) {
	snap := r.lookup(ctx, src)

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
	close(r.done)

	if onSettled != nil {
		onSettled(snap)
	}
}

func (r *Resolver) lookup(ctx context.Context, src PositionSource) Snapshot {
	denied := Snapshot{Status: StatusDenied, Hint: HintEnableLocation}
	if src == nil {
		return denied
	}

	posCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	lat, lng, err := src.CurrentPosition(posCtx, r.cfg.MaxAge)
	cancel()
	if err != nil {
		r.infof("ambient location unavailable: %v", err)
		return denied
	}

	if r.geocoder == nil {
		return denied
	}
	address, err := r.geocoder.Reverse(ctx, lat, lng)
	if err != nil || address == "" {
		if err != nil {
			r.errorf("ambient reverse geocode failed: %v", err)
		}
		return denied
	}

	return Snapshot{
		Status: StatusGranted,
		Location: &models.AmbientLocation{
			Latitude:        lat,
			Longitude:       lng,
			ResolvedAddress: address,
		},
	}
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Done is closed once the lookup has settled.
func (r *Resolver) Done() <-chan struct{} { return r.done }

// Wait blocks until the lookup settles or ctx ends, then returns the current
// snapshot.
func (r *Resolver) Wait(ctx context.Context) Snapshot {
	select {
	case <-r.done:
	case <-ctx.Done():
	}
	return r.Snapshot()
}

func (r *Resolver) infof(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Infof(format, args...)
	}
}

func (r *Resolver) errorf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Errorf(format, args...)
	}
}
