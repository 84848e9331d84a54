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

// NotificationService keeps the user-facing feed of write outcomes.
type NotificationService struct {
	repo ports.NotificationRepository
	now  func() time.Time
}

// NewNotificationService creates a NotificationService. A nil repo keeps
// the feed in memory for the lifetime of the process.
func NewNotificationService(repo ports.NotificationRepository) *NotificationService {
	if repo == nil {
		repo = newMemoryNotifications(200)
	}
	return &NotificationService{repo: repo, now: time.Now}
}

// Record stores the outcome of a write action. err == nil records a success.
// Failing to store the notification is logged and otherwise ignored.
func (s *NotificationService) Record(ctx context.Context, action string, err error) {
	if s == nil {
		return
	}

	n := &domain.Notification{
		Action:    action,
		Message:   successMessage(action),
		CreatedAt: s.now(),
	}
	if err != nil {
		n.Failed = true
		n.Message = failureMessage(action, err)
		metrics.WriteFailures.WithLabelValues(action).Inc()
		slog.WarnContext(ctx, "write action failed", "action", action, "error", err)
	}

	if ierr := s.repo.Insert(ctx, n); ierr != nil {
		slog.WarnContext(ctx, "store notification", "action", action, "error", ierr)
	}
}

// List returns the most recent notifications, newest first.
func (s *NotificationService) List(ctx context.Context, includeDismissed bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, includeDismissed, limit)
}

// Dismiss hides a notification from the default listing.
func (s *NotificationService) Dismiss(ctx context.Context, id int64) error {
	return s.repo.Dismiss(ctx, id)
}

var actionLabels = map[string]string{
	"login":               "Sign in",
	"emit_alert":          "Send alert",
	"delete_alert":        "Delete alert",
	"add_comment":         "Post comment",
	"delete_comment":      "Delete comment",
	"create_point":        "Create point of interest",
	"register_user":       "Register neighbor",
	"update_user":         "Update neighbor",
	"delete_user":         "Delete neighbor",
	"set_permissions":     "Update permissions",
	"create_announcement": "Publish announcement",
}

func label(action string) string {
	if l, ok := actionLabels[action]; ok {
		return l
	}
	return action
}

func successMessage(action string) string {
	return label(action) + ": done"
}

func failureMessage(action string, err error) string {
	return label(action) + " failed: " + err.Error()
}

// memoryNotifications is a bounded in-process ports.NotificationRepository.
type memoryNotifications struct {
	mu     sync.Mutex
	nextID int64
	max    int
	items  []domain.Notification
}

func newMemoryNotifications(max int) *memoryNotifications {
	return &memoryNotifications{max: max}
}

func (m *memoryNotifications) Insert(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	n.ID = m.nextID
	m.items = append(m.items, *n)
	if len(m.items) > m.max {
		m.items = m.items[len(m.items)-m.max:]
	}
	return nil
}

func (m *memoryNotifications) ListRecent(ctx context.Context, includeDismissed bool, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Notification, 0, len(m.items))
	for _, n := range m.items {
		if n.Dismissed && !includeDismissed {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryNotifications) Dismiss(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Dismissed = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}
