package ports

import (
	"context"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// The repositories below are backed by the external EncinApp REST backend.

// PointRepository reads and creates points of interest.
type PointRepository interface {
	List(ctx context.Context) ([]domain.PointOfInterest, error)
	Create(ctx context.Context, p domain.NewPoint) error
}

// AlertRepository reads and writes alerts. activeOnly narrows the listing
// to alerts that are still active.
type AlertRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Alert, error)
	GetByID(ctx context.Context, id int64) (*domain.Alert, error)
	Create(ctx context.Context, a domain.NewAlert) (*domain.Alert, error)
	Delete(ctx context.Context, id int64) error
}

// CommentRepository manages the comment thread of an alert.
type CommentRepository interface {
	List(ctx context.Context, alertID int64) ([]domain.Comment, error)
	Create(ctx context.Context, alertID int64, c domain.NewComment) error
	Delete(ctx context.Context, alertID, commentID int64) error
}

// AnnouncementRepository manages neighborhood announcements.
type AnnouncementRepository interface {
	List(ctx context.Context) ([]domain.Announcement, error)
	Create(ctx context.Context, authorID int64, a domain.Announcement) error
}

// UserRepository manages the neighbor directory.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, u domain.NewUser) error
	UpdateField(ctx context.Context, id int64, field string, value any) error
	Delete(ctx context.Context, id int64) error
}

// PermissionRepository manages per-user permissions.
type PermissionRepository interface {
	List(ctx context.Context, userID int64) ([]domain.Permission, error)
	Replace(ctx context.Context, userID int64, names []string) error
}

// AuthGateway exchanges credentials for a session token.
type AuthGateway interface {
	Login(ctx context.Context, c domain.Credentials) (string, error)
}

// NotificationRepository persists user-facing notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	ListRecent(ctx context.Context, includeDismissed bool, limit int) ([]domain.Notification, error)
	Dismiss(ctx context.Context, id int64) error
}
