package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/usecases"
)

func alertsRepo(lists ...[]domain.Alert) *mockAlertRepo {
	call := 0
	return &mockAlertRepo{listFn: func(ctx context.Context, activeOnly bool) ([]domain.Alert, error) {
		if !activeOnly {
			return nil, errors.New("watcher must ask for active alerts")
		}
		l := lists[min(call, len(lists)-1)]
		call++
		return l, nil
	}}
}

func TestAlertWatcher_FirstPollOnlyPrimes(t *testing.T) {
	pub := &mockPublisher{}
	w := usecases.NewAlertWatcher(alertsRepo([]domain.Alert{
		{ID: 1, Category: domain.CategoryIncident, Active: true},
	}), pub)

	res, err := w.Poll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 0 || res.Deleted != 0 || len(pub.events) != 0 {
		t.Errorf("priming poll published %+v (%d events)", res, len(pub.events))
	}
}

func TestAlertWatcher_PublishesDifferences(t *testing.T) {
	pub := &mockPublisher{}
	w := usecases.NewAlertWatcher(alertsRepo(
		[]domain.Alert{
			{ID: 1, Category: domain.CategoryIncident, Active: true},
			{ID: 2, Category: domain.CategoryHealth, Active: true},
		},
		[]domain.Alert{
			{ID: 2, Category: domain.CategoryHealth, Active: true},
			{ID: 4, Category: domain.CategorySecurity, Active: true},
			{ID: 3, Category: domain.CategoryIncident, Active: true},
			{ID: 9, Category: domain.CategoryIncident, Active: false},
		},
	), pub)

	ctx := context.Background()
	if _, err := w.Poll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := w.Poll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 2 || res.Deleted != 1 {
		t.Fatalf("result = %+v, want 2 created 1 deleted", res)
	}

	want := []string{"alert-3-created", "alert-4-created", "alert-1-deleted"}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.events))
	}
	for i, id := range want {
		if pub.events[i].ID != id {
			t.Errorf("event %d id = %q, want %q", i, pub.events[i].ID, id)
		}
	}
	if pub.events[0].Alert.Category != domain.CategoryIncident {
		t.Errorf("created event should carry the alert, got %+v", pub.events[0].Alert)
	}

	// Nothing changed since the last poll.
	res, err = w.Poll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 0 || res.Deleted != 0 {
		t.Errorf("steady poll published %+v", res)
	}
}

func TestAlertWatcher_RetriesFailedPublish(t *testing.T) {
	failing := true
	pub := &mockPublisher{failFn: func(e *domain.AlertEvent) error {
		if failing {
			return errors.New("nats: timeout")
		}
		return nil
	}}
	w := usecases.NewAlertWatcher(alertsRepo(
		[]domain.Alert{},
		[]domain.Alert{{ID: 5, Category: domain.CategoryIncident, Active: true}},
	), pub)

	ctx := context.Background()
	_, _ = w.Poll(ctx)
	res, err := w.Poll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 0 {
		t.Fatalf("failed publish should not count, got %+v", res)
	}

	failing = false
	res, err = w.Poll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created != 1 || len(pub.events) != 1 || pub.events[0].ID != "alert-5-created" {
		t.Errorf("expected retried created event, got %+v %+v", res, pub.events)
	}
}

func TestAlertWatcher_FetchErrorKeepsState(t *testing.T) {
	pub := &mockPublisher{}
	call := 0
	repo := &mockAlertRepo{listFn: func(ctx context.Context, activeOnly bool) ([]domain.Alert, error) {
		call++
		if call == 2 {
			return nil, errBackendDown
		}
		return []domain.Alert{{ID: 1, Category: domain.CategoryIncident, Active: true}}, nil
	}}
	w := usecases.NewAlertWatcher(repo, pub)

	ctx := context.Background()
	_, _ = w.Poll(ctx)
	if _, err := w.Poll(ctx); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	res, err := w.Poll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Deleted != 0 || len(pub.events) != 0 {
		t.Errorf("a failed fetch must not look like every alert closed, got %+v", res)
	}
}
