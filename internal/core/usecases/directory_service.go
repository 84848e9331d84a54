package usecases

import (
	"context"
	"log/slog"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// editableUserFields maps the fields a neighbor record exposes for editing
// to their backend names.
var editableUserFields = map[string]string{
	"name":         "nombre",
	"rut":          "rut",
	"address":      "direccion",
	"available":    "disponibilidad",
	"is_president": "es_presidente",
}

var knownPermissions = map[string]bool{
	domain.PermManageUsers:         true,
	domain.PermManageAnnouncements: true,
	domain.PermManagePoints:        true,
	domain.PermManagePermissions:   true,
}

// DirectoryService manages the neighbor directory and permissions.
type DirectoryService struct {
	users ports.UserRepository
	perms ports.PermissionRepository
	notes *NotificationService
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(users ports.UserRepository, perms ports.PermissionRepository, notes *NotificationService) *DirectoryService {
	return &DirectoryService{users: users, perms: perms, notes: notes}
}

// ListUsers returns every neighbor. A failed fetch yields an empty list.
func (s *DirectoryService) ListUsers(ctx context.Context) []domain.User {
	users, err := s.users.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "fetch users", "error", err)
		metrics.ReadFallbacks.WithLabelValues("users").Inc()
		return []domain.User{}
	}
	if users == nil {
		users = []domain.User{}
	}
	return users
}

// GetUser returns a single neighbor.
func (s *DirectoryService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// Register adds a neighbor after checking the PIN confirmation.
func (s *DirectoryService) Register(ctx context.Context, u domain.NewUser) error {
	if err := validateInput(u); err != nil {
		return err
	}
	err := s.users.Create(ctx, u)
	s.notes.Record(ctx, "register_user", err)
	return err
}

// UpdateField changes a single editable attribute of a neighbor.
func (s *DirectoryService) UpdateField(ctx context.Context, id int64, field string, value any) error {
	backendName, ok := editableUserFields[field]
	if !ok {
		return &domain.ValidationError{Fields: map[string]string{field: "is not editable"}}
	}
	if str, isStr := value.(string); value == nil || (isStr && str == "") {
		return &domain.ValidationError{Fields: map[string]string{field: "is required"}}
	}

	err := s.users.UpdateField(ctx, id, backendName, value)
	s.notes.Record(ctx, "update_user", err)
	return err
}

// ChangePIN sets a new PIN after checking the confirmation.
func (s *DirectoryService) ChangePIN(ctx context.Context, id int64, c domain.PINChange) error {
	if err := validateInput(c); err != nil {
		return err
	}
	err := s.users.UpdateField(ctx, id, "pin", c.PIN)
	s.notes.Record(ctx, "update_user", err)
	return err
}

// DeleteUser removes a neighbor.
func (s *DirectoryService) DeleteUser(ctx context.Context, id int64) error {
	err := s.users.Delete(ctx, id)
	s.notes.Record(ctx, "delete_user", err)
	return err
}

// Permissions lists a neighbor's permissions. A failed fetch yields an empty list.
func (s *DirectoryService) Permissions(ctx context.Context, userID int64) []domain.Permission {
	perms, err := s.perms.List(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "fetch permissions", "user_id", userID, "error", err)
		metrics.ReadFallbacks.WithLabelValues("permissions").Inc()
		return []domain.Permission{}
	}
	if perms == nil {
		perms = []domain.Permission{}
	}
	return perms
}

// SetPermissions replaces a neighbor's permissions.
func (s *DirectoryService) SetPermissions(ctx context.Context, userID int64, names []string) error {
	for _, n := range names {
		if !knownPermissions[n] {
			return &domain.ValidationError{Fields: map[string]string{"permissions": "unknown permission " + n}}
		}
	}
	if names == nil {
		names = []string{}
	}
	err := s.perms.Replace(ctx, userID, names)
	s.notes.Record(ctx, "set_permissions", err)
	return err
}
