// Package device provides the location sources the gateway can read from.
package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// Static always reports the same position. It stands in for a device
// without a positioning source.
type Static struct {
	at domain.Coordinate
}

func NewStatic(lat, lon float64) *Static {
	return &Static{at: domain.Coordinate{Latitude: lat, Longitude: lon}}
}

func (s *Static) CurrentLocation(ctx context.Context) (domain.Coordinate, error) {
	metrics.LocationFixes.WithLabelValues("static").Inc()
	return s.at, nil
}

// Tracker keeps the latest fix pushed by the device. CurrentLocation blocks
// until a first fix arrives, the wait elapses, or ctx is done.
type Tracker struct {
	maxAge time.Duration
	wait   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	fix     *domain.LocationFix
	denied  bool
	updated chan struct{} // closed and replaced on every Update
}

// NewTracker creates a Tracker. Fixes older than maxAge are treated as
// missing; zero disables the check. wait bounds how long CurrentLocation
// waits for a fix.
func NewTracker(maxAge, wait time.Duration) *Tracker {
	return &Tracker{
		maxAge:  maxAge,
		wait:    wait,
		now:     time.Now,
		updated: make(chan struct{}),
	}
}

// Update records a fix. A fix with PermissionGranted false revokes the
// permission and drops the stored position.
func (t *Tracker) Update(fix domain.LocationFix) {
	if fix.Time.IsZero() {
		fix.Time = t.now()
	}

	t.mu.Lock()
	if fix.PermissionGranted {
		t.fix = &fix
		t.denied = false
	} else {
		t.fix = nil
		t.denied = true
	}
	close(t.updated)
	t.updated = make(chan struct{})
	t.mu.Unlock()

	metrics.LocationFixes.WithLabelValues("device").Inc()
}

// HandleFix adapts Update to the subscriber callback shape.
func (t *Tracker) HandleFix(ctx context.Context, fix *domain.LocationFix) error {
	if fix == nil {
		return fmt.Errorf("empty location fix")
	}
	t.Update(*fix)
	return nil
}

func (t *Tracker) CurrentLocation(ctx context.Context) (domain.Coordinate, error) {
	var timeout <-chan time.Time
	if t.wait > 0 {
		timer := time.NewTimer(t.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		t.mu.Lock()
		switch {
		case t.denied:
			t.mu.Unlock()
			return domain.Coordinate{}, domain.ErrPermissionDenied
		case t.fix != nil && (t.maxAge == 0 || t.now().Sub(t.fix.Time) <= t.maxAge):
			c := t.fix.Location
			t.mu.Unlock()
			return c, nil
		}
		updated := t.updated
		t.mu.Unlock()

		select {
		case <-updated:
		case <-timeout:
			return domain.Coordinate{}, domain.ErrLocationUnavailable
		case <-ctx.Done():
			return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, ctx.Err())
		}
	}
}
