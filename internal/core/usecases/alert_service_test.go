package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/core/usecases"
)

func newAlertService(alerts *mockAlertRepo, comments *mockCommentRepo, loc *mockLocation, pub *mockPublisher, notes *usecases.NotificationService) *usecases.AlertService {
	geocoder := &mockGeocoder{fn: func(ctx context.Context, c domain.Coordinate) (*ports.Address, error) {
		return &ports.Address{Street: "Bulnes", Number: "55", City: "Temuco"}, nil
	}}
	geo := usecases.NewGeolocationService(loc, geocoder, nil)
	points := usecases.NewPointService(&mockPointRepo{listFn: func(ctx context.Context) ([]domain.PointOfInterest, error) {
		return samplePoints(), nil
	}}, nil)
	var publisher ports.EventPublisher
	if pub != nil {
		publisher = pub
	}
	return usecases.NewAlertService(alerts, comments, geo, points, publisher, notes)
}

func TestAlertService_ListActiveFiltersInactive(t *testing.T) {
	var gotActiveOnly bool
	repo := &mockAlertRepo{listFn: func(ctx context.Context, activeOnly bool) ([]domain.Alert, error) {
		gotActiveOnly = activeOnly
		return []domain.Alert{{ID: 1, Active: true}, {ID: 2, Active: false}, {ID: 3, Active: true}}, nil
	}}
	svc := newAlertService(repo, &mockCommentRepo{}, fixedLocation(0, 0), nil, nil)

	got := svc.ListActive(context.Background())
	if !gotActiveOnly {
		t.Error("expected the active-only listing to be requested")
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("unexpected active alerts %+v", got)
	}
}

func TestAlertService_ListActiveFailureIsEmpty(t *testing.T) {
	repo := &mockAlertRepo{listFn: func(ctx context.Context, activeOnly bool) ([]domain.Alert, error) {
		return nil, errBackendDown
	}}
	svc := newAlertService(repo, &mockCommentRepo{}, fixedLocation(0, 0), nil, nil)

	got := svc.ListActive(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestAlertService_History(t *testing.T) {
	repo := &mockAlertRepo{listFn: func(ctx context.Context, activeOnly bool) ([]domain.Alert, error) {
		if activeOnly {
			t.Error("history must request every alert")
		}
		return []domain.Alert{{ID: 1, Active: true}, {ID: 2}, {ID: 3}}, nil
	}}
	svc := newAlertService(repo, &mockCommentRepo{}, fixedLocation(0, 0), nil, nil)

	h := svc.History(context.Background())
	if len(h.Active) != 1 || len(h.Inactive) != 2 {
		t.Errorf("unexpected split: %d active, %d inactive", len(h.Active), len(h.Inactive))
	}
}

func TestAlertService_Detail(t *testing.T) {
	repo := &mockAlertRepo{getByIDFn: func(ctx context.Context, id int64) (*domain.Alert, error) {
		return &domain.Alert{ID: id, Category: domain.CategoryHealth, Active: true}, nil
	}}
	comments := &mockCommentRepo{listFn: func(ctx context.Context, alertID int64) ([]domain.Comment, error) {
		return nil, errBackendDown
	}}
	svc := newAlertService(repo, comments, fixedLocation(0, 0), nil, nil)

	d, err := svc.Detail(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Alert.ID != 7 {
		t.Errorf("expected alert 7, got %d", d.Alert.ID)
	}
	if d.Address != "Bulnes 55, Temuco" {
		t.Errorf("unexpected address %q", d.Address)
	}
	if d.Comments == nil || len(d.Comments) != 0 {
		t.Errorf("failed comment fetch should yield an empty thread, got %#v", d.Comments)
	}
	if len(d.SuggestedReplies) != 3 {
		t.Errorf("expected 3 suggested replies, got %d", len(d.SuggestedReplies))
	}
}

func TestAlertService_DetailNotFound(t *testing.T) {
	svc := newAlertService(&mockAlertRepo{}, &mockCommentRepo{}, fixedLocation(0, 0), nil, nil)

	if _, err := svc.Detail(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertService_Draft(t *testing.T) {
	svc := newAlertService(&mockAlertRepo{}, &mockCommentRepo{}, fixedLocation(-38.7359, -72.5904), nil, nil)

	d, err := svc.Draft(context.Background(), domain.CategorySecurity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.CanEmit {
		t.Error("expected draft to be emittable")
	}
	if len(d.Nearby) != 2 || d.Nearby[0].ID != 3 {
		t.Errorf("expected the two security points nearest first, got %+v", d.Nearby)
	}
	for _, p := range d.Nearby {
		if p.Distance == "" {
			t.Errorf("point %d has no distance", p.ID)
		}
	}
}

func TestAlertService_DraftWithoutLocation(t *testing.T) {
	svc := newAlertService(&mockAlertRepo{}, &mockCommentRepo{}, deniedLocation(), nil, nil)

	d, err := svc.Draft(context.Background(), domain.CategoryHealth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.CanEmit {
		t.Error("draft without a location must not be emittable")
	}
	if d.Location.Address != domain.AddressCouldNotLocate {
		t.Errorf("unexpected address %q", d.Location.Address)
	}
}

func TestAlertService_DraftInvalidCategory(t *testing.T) {
	svc := newAlertService(&mockAlertRepo{}, &mockCommentRepo{}, fixedLocation(0, 0), nil, nil)

	if _, err := svc.Draft(context.Background(), domain.Category(42)); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestAlertService_EmitUsesDeviceLocation(t *testing.T) {
	var sent domain.NewAlert
	repo := &mockAlertRepo{createFn: func(ctx context.Context, a domain.NewAlert) (*domain.Alert, error) {
		sent = a
		return &domain.Alert{ID: 55, Category: a.Category, Location: a.Location, Active: true}, nil
	}}
	pub := &mockPublisher{}
	notes := usecases.NewNotificationService(nil)
	svc := newAlertService(repo, &mockCommentRepo{}, fixedLocation(-38.7, -72.6), pub, notes)

	a, err := svc.Emit(context.Background(), domain.CategoryIncident, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != 55 {
		t.Errorf("expected created alert 55, got %d", a.ID)
	}
	if sent.Category != domain.CategoryIncident || sent.Location.Latitude != -38.7 || sent.Location.Longitude != -72.6 {
		t.Errorf("unexpected payload %+v", sent)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != "created" || pub.events[0].Alert.ID != 55 {
		t.Errorf("expected one created event, got %+v", pub.events)
	}
	if pub.events[0].ID != "alert-55-created" {
		t.Errorf("event id = %q, want alert-55-created", pub.events[0].ID)
	}

	list, _ := notes.List(context.Background(), false, 0)
	if len(list) != 1 || list[0].Failed || list[0].Action != "emit_alert" {
		t.Errorf("expected one successful emit notification, got %+v", list)
	}
}

func TestAlertService_EmitAtExplicitCoordinate(t *testing.T) {
	var sent domain.NewAlert
	repo := &mockAlertRepo{createFn: func(ctx context.Context, a domain.NewAlert) (*domain.Alert, error) {
		sent = a
		return nil, nil
	}}
	svc := newAlertService(repo, &mockCommentRepo{}, deniedLocation(), nil, nil)

	at := &domain.Coordinate{Latitude: 1, Longitude: 2}
	a, err := svc.Emit(context.Background(), domain.CategoryHealth, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent.Location != *at {
		t.Errorf("expected explicit coordinate to be sent, got %+v", sent.Location)
	}
	if a == nil || !a.Active || a.Category != domain.CategoryHealth {
		t.Errorf("expected synthesized active alert, got %+v", a)
	}
}

func TestAlertService_EmitDenied(t *testing.T) {
	called := false
	repo := &mockAlertRepo{createFn: func(ctx context.Context, a domain.NewAlert) (*domain.Alert, error) {
		called = true
		return nil, nil
	}}
	notes := usecases.NewNotificationService(nil)
	svc := newAlertService(repo, &mockCommentRepo{}, deniedLocation(), nil, notes)

	_, err := svc.Emit(context.Background(), domain.CategorySecurity, nil)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if called {
		t.Error("no alert may be sent without a location")
	}
	list, _ := notes.List(context.Background(), false, 0)
	if len(list) != 1 || !list[0].Failed {
		t.Errorf("expected one failed notification, got %+v", list)
	}
}

func TestAlertService_EmitBackendFailureNotPublished(t *testing.T) {
	repo := &mockAlertRepo{createFn: func(ctx context.Context, a domain.NewAlert) (*domain.Alert, error) {
		return nil, errBackendDown
	}}
	pub := &mockPublisher{}
	svc := newAlertService(repo, &mockCommentRepo{}, fixedLocation(0, 0), pub, nil)

	if _, err := svc.Emit(context.Background(), domain.CategoryHealth, nil); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("failed emit must not publish, got %d events", len(pub.events))
	}
}

func TestAlertService_DeletePublishes(t *testing.T) {
	var deleted int64
	repo := &mockAlertRepo{deleteFn: func(ctx context.Context, id int64) error {
		deleted = id
		return nil
	}}
	pub := &mockPublisher{}
	svc := newAlertService(repo, &mockCommentRepo{}, fixedLocation(0, 0), pub, nil)

	if err := svc.Delete(context.Background(), 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 12 {
		t.Errorf("expected alert 12 deleted, got %d", deleted)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != "deleted" {
		t.Errorf("expected one deleted event, got %+v", pub.events)
	}
}

func TestAlertService_AddComment(t *testing.T) {
	var got domain.NewComment
	comments := &mockCommentRepo{createFn: func(ctx context.Context, alertID int64, c domain.NewComment) error {
		got = c
		return nil
	}}
	svc := newAlertService(&mockAlertRepo{}, comments, fixedLocation(0, 0), nil, nil)

	if err := svc.AddComment(context.Background(), 3, domain.NewComment{Content: "On my way"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "On my way" {
		t.Errorf("unexpected comment %+v", got)
	}

	var verr *domain.ValidationError
	if err := svc.AddComment(context.Background(), 3, domain.NewComment{}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for empty comment, got %v", err)
	}
}
