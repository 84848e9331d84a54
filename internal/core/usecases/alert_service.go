package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// AlertService handles alert emission, listing, detail and comments.
type AlertService struct {
	alerts    ports.AlertRepository
	comments  ports.CommentRepository
	geo       *GeolocationService
	points    *PointService
	publisher ports.EventPublisher
	notes     *NotificationService
	now       func() time.Time
}

// NewAlertService creates a new AlertService. publisher may be nil.
func NewAlertService(
	alerts ports.AlertRepository,
	comments ports.CommentRepository,
	geo *GeolocationService,
	points *PointService,
	publisher ports.EventPublisher,
	notes *NotificationService,
) *AlertService {
	return &AlertService{
		alerts:    alerts,
		comments:  comments,
		geo:       geo,
		points:    points,
		publisher: publisher,
		notes:     notes,
		now:       time.Now,
	}
}

// AlertHistory splits alerts by activity state.
type AlertHistory struct {
	Active   []domain.Alert `json:"active"`
	Inactive []domain.Alert `json:"inactive"`
}

// AlertDetail is everything the alert-detail view shows.
type AlertDetail struct {
	Alert            domain.Alert     `json:"alert"`
	Address          string           `json:"address"`
	Comments         []domain.Comment `json:"comments"`
	SuggestedReplies []string         `json:"suggested_replies"`
}

// AlertDraft is the confirmation step before an alert is emitted.
type AlertDraft struct {
	Category domain.Category          `json:"category"`
	Location domain.UserLocation      `json:"location"`
	Nearby   []domain.PointOfInterest `json:"nearby"`
	CanEmit  bool                     `json:"can_emit"`
}

// ListActive returns the alerts still active. A failed fetch yields an empty list.
func (s *AlertService) ListActive(ctx context.Context) []domain.Alert {
	all, err := s.alerts.List(ctx, true)
	if err != nil {
		slog.WarnContext(ctx, "fetch active alerts", "error", err)
		metrics.ReadFallbacks.WithLabelValues("alerts").Inc()
		return []domain.Alert{}
	}

	active := make([]domain.Alert, 0, len(all))
	for _, a := range all {
		if a.Active {
			active = append(active, a)
		}
	}
	return active
}

// History returns every alert split into active and inactive.
func (s *AlertService) History(ctx context.Context) AlertHistory {
	h := AlertHistory{Active: []domain.Alert{}, Inactive: []domain.Alert{}}

	all, err := s.alerts.List(ctx, false)
	if err != nil {
		slog.WarnContext(ctx, "fetch alert history", "error", err)
		metrics.ReadFallbacks.WithLabelValues("alerts").Inc()
		return h
	}

	for _, a := range all {
		if a.Active {
			h.Active = append(h.Active, a)
		} else {
			h.Inactive = append(h.Inactive, a)
		}
	}
	return h
}

// Detail loads an alert with its address and comment thread. The comment
// thread degrades to empty on failure; the alert itself must exist.
func (s *AlertService) Detail(ctx context.Context, id int64) (*AlertDetail, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrNotFound
	}

	return &AlertDetail{
		Alert:            *alert,
		Address:          s.geo.ReverseGeocode(ctx, alert.Location),
		Comments:         s.Comments(ctx, id),
		SuggestedReplies: domain.SuggestedReplies,
	}, nil
}

// Comments returns the thread of an alert. A failed fetch yields an empty list.
func (s *AlertService) Comments(ctx context.Context, alertID int64) []domain.Comment {
	comments, err := s.comments.List(ctx, alertID)
	if err != nil {
		slog.WarnContext(ctx, "fetch comments", "alert_id", alertID, "error", err)
		metrics.ReadFallbacks.WithLabelValues("comments").Inc()
		return []domain.Comment{}
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments
}

// Draft locates the user and lists the nearest points of interest of the
// same category, the way the confirmation screen presents them.
func (s *AlertService) Draft(ctx context.Context, category domain.Category) (*AlertDraft, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	loc := s.geo.Locate(ctx)
	draft := &AlertDraft{
		Category: category,
		Location: loc,
		Nearby:   []domain.PointOfInterest{},
		CanEmit:  loc.Available(),
	}
	if !loc.Available() {
		draft.Location.Address = domain.AddressCouldNotLocate
		return draft, nil
	}

	draft.Nearby = s.points.Nearby(ctx, domain.FilterBy(category), loc.Location)
	return draft, nil
}

// Emit sends a new alert. When at is nil the current device position is used.
func (s *AlertService) Emit(ctx context.Context, category domain.Category, at *domain.Coordinate) (*domain.Alert, error) {
	in := domain.NewAlert{Category: category}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	if at == nil {
		c, err := s.geo.CurrentLocation(ctx)
		if err != nil {
			err = fmt.Errorf("locate alert: %w", err)
			s.notes.Record(ctx, "emit_alert", err)
			return nil, err
		}
		at = c
	}
	in.Location = *at

	created, err := s.alerts.Create(ctx, in)
	s.notes.Record(ctx, "emit_alert", err)
	if err != nil {
		return nil, err
	}

	// Backends that reply without a body still created the alert.
	if created == nil {
		created = &domain.Alert{
			Category: in.Category,
			Location: in.Location,
			IssuedAt: s.now(),
			Active:   true,
		}
	}

	s.publish(ctx, "created", *created)
	return created, nil
}

// Delete removes an alert.
func (s *AlertService) Delete(ctx context.Context, id int64) error {
	err := s.alerts.Delete(ctx, id)
	s.notes.Record(ctx, "delete_alert", err)
	if err != nil {
		return err
	}
	s.publish(ctx, "deleted", domain.Alert{ID: id})
	return nil
}

// AddComment posts to an alert's thread.
func (s *AlertService) AddComment(ctx context.Context, alertID int64, c domain.NewComment) error {
	if err := validateInput(c); err != nil {
		return err
	}
	err := s.comments.Create(ctx, alertID, c)
	s.notes.Record(ctx, "add_comment", err)
	return err
}

// DeleteComment removes a comment from an alert's thread.
func (s *AlertService) DeleteComment(ctx context.Context, alertID, commentID int64) error {
	err := s.comments.Delete(ctx, alertID, commentID)
	s.notes.Record(ctx, "delete_comment", err)
	return err
}

func (s *AlertService) publish(ctx context.Context, kind string, a domain.Alert) {
	if s.publisher == nil {
		return
	}
	event := &domain.AlertEvent{
		ID:         alertEventID(kind, a.ID),
		Kind:       kind,
		Alert:      a,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishAlertEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish alert event", "kind", kind, "error", err)
	}
}

// alertEventID is stable for a known alert so that the gateway and the
// watcher publishing the same change collapse into one JetStream message.
func alertEventID(kind string, alertID int64) string {
	if alertID == 0 {
		return uuid.NewString()
	}
	return fmt.Sprintf("alert-%d-%s", alertID, kind)
}
