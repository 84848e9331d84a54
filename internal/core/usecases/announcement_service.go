package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// AnnouncementService handles the neighborhood bulletin.
type AnnouncementService struct {
	announcements ports.AnnouncementRepository
	session       *Session
	notes         *NotificationService
	now           func() time.Time
}

// NewAnnouncementService creates a new AnnouncementService.
func NewAnnouncementService(announcements ports.AnnouncementRepository, session *Session, notes *NotificationService) *AnnouncementService {
	return &AnnouncementService{announcements: announcements, session: session, notes: notes, now: time.Now}
}

// List returns the announcements. A failed fetch yields an empty list.
func (s *AnnouncementService) List(ctx context.Context) []domain.Announcement {
	list, err := s.announcements.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "fetch announcements", "error", err)
		metrics.ReadFallbacks.WithLabelValues("announcements").Inc()
		return []domain.Announcement{}
	}
	if list == nil {
		list = []domain.Announcement{}
	}
	return list
}

// Publish posts an announcement on behalf of the logged-in user, dated today.
func (s *AnnouncementService) Publish(ctx context.Context, in domain.NewAnnouncement) (*domain.Announcement, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	authorID, err := s.session.UserID(ctx)
	if err != nil {
		s.notes.Record(ctx, "create_announcement", err)
		return nil, err
	}

	a := domain.Announcement{
		AuthorID:    authorID,
		Title:       in.Title,
		Body:        in.Body,
		RelatedDate: in.RelatedDate,
		Address:     in.Address,
		IssuedAt:    s.now().UTC().Format(time.DateOnly),
	}
	err = s.announcements.Create(ctx, authorID, a)
	s.notes.Record(ctx, "create_announcement", err)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
