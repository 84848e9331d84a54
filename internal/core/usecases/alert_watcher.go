package usecases

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// AlertWatcher polls the backend for active alerts and publishes the
// difference between consecutive polls. This surfaces alerts emitted or
// closed by other residents to WebSocket subscribers.
type AlertWatcher struct {
	alerts    ports.AlertRepository
	publisher ports.EventPublisher
	now       func() time.Time

	mu     sync.Mutex
	primed bool
	known  map[int64]domain.Alert
}

// NewAlertWatcher creates a new AlertWatcher.
func NewAlertWatcher(alerts ports.AlertRepository, publisher ports.EventPublisher) *AlertWatcher {
	return &AlertWatcher{
		alerts:    alerts,
		publisher: publisher,
		now:       time.Now,
		known:     make(map[int64]domain.Alert),
	}
}

// WatchResult counts the events published by one poll.
type WatchResult struct {
	Created int
	Deleted int
}

// Poll fetches the active alerts once. The first successful poll only
// records what is active; later polls publish "created" for alerts not seen
// before and "deleted" for alerts that are no longer active. An alert whose
// event fails to publish is retried on the next poll.
func (w *AlertWatcher) Poll(ctx context.Context) (WatchResult, error) {
	all, err := w.alerts.List(ctx, true)
	if err != nil {
		metrics.WatcherPolls.WithLabelValues("error").Inc()
		return WatchResult{}, err
	}

	current := make(map[int64]domain.Alert, len(all))
	for _, a := range all {
		if a.Active && a.ID != 0 {
			current[a.ID] = a
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.primed {
		w.known = current
		w.primed = true
		metrics.WatcherPolls.WithLabelValues("primed").Inc()
		return WatchResult{}, nil
	}

	var res WatchResult
	for _, id := range sortedIDs(current) {
		if _, seen := w.known[id]; seen {
			continue
		}
		if w.publish(ctx, "created", current[id]) {
			w.known[id] = current[id]
			res.Created++
		}
	}
	for _, id := range sortedIDs(w.known) {
		if _, still := current[id]; still {
			continue
		}
		if w.publish(ctx, "deleted", domain.Alert{ID: id}) {
			delete(w.known, id)
			res.Deleted++
		}
	}

	metrics.WatcherPolls.WithLabelValues("ok").Inc()
	return res, nil
}

// Run polls immediately and then every interval until ctx is cancelled.
func (w *AlertWatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *AlertWatcher) runOnce(ctx context.Context) {
	res, err := w.Poll(ctx)
	if err != nil {
		slog.WarnContext(ctx, "poll active alerts", "error", err)
		return
	}
	if res.Created > 0 || res.Deleted > 0 {
		slog.InfoContext(ctx, "alert changes published", "created", res.Created, "deleted", res.Deleted)
	}
}

func (w *AlertWatcher) publish(ctx context.Context, kind string, a domain.Alert) bool {
	event := &domain.AlertEvent{
		ID:         alertEventID(kind, a.ID),
		Kind:       kind,
		Alert:      a,
		OccurredAt: w.now(),
	}
	if err := w.publisher.PublishAlertEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish alert event", "kind", kind, "alert_id", a.ID, "error", err)
		return false
	}
	metrics.WatcherEvents.WithLabelValues(kind).Inc()
	return true
}

func sortedIDs(m map[int64]domain.Alert) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
