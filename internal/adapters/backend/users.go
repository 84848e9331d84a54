package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// noPermissionsMessage is the backend's reply for a user without permissions.
const noPermissionsMessage = "El usuario no tiene permisos asignados"

// UserRepo implements ports.UserRepository over /usuarios.
type UserRepo struct {
	c *Client
}

func NewUserRepo(c *Client) *UserRepo {
	return &UserRepo{c: c}
}

func userPath(id int64) string {
	return "/usuarios/" + strconv.FormatInt(id, 10)
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var body jsonBody
	if err := r.c.do(ctx, call{op: "list_users", method: "GET", path: "/usuarios", auth: authOptional, out: &body}); err != nil {
		return nil, err
	}

	raw, ok := envelope(body, "usuariosEncontrados", "usuarios")
	if !ok {
		return []domain.User{}, nil
	}
	var dtos []userDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]domain.User, 0, len(dtos))
	for _, d := range dtos {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var body jsonBody
	if err := r.c.do(ctx, call{op: "get_user", method: "GET", path: userPath(id), auth: authOptional, out: &body}); err != nil {
		return nil, err
	}

	raw, ok := envelope(body, "usuarioEncontrado", "usuario")
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	var d userDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u := d.toDomain()
	return &u, nil
}

// Create registers a neighbor. New neighbors are never president and start
// as unavailable.
func (r *UserRepo) Create(ctx context.Context, u domain.NewUser) error {
	return r.c.do(ctx, call{
		op:     "register_user",
		method: "POST",
		path:   "/usuarios",
		auth:   authOptional,
		in: newUserDTO{
			Name:    u.Name,
			RUT:     u.RUT,
			PIN:     u.PIN,
			Address: u.Address,
		},
	})
}

func (r *UserRepo) UpdateField(ctx context.Context, id int64, field string, value any) error {
	return r.c.do(ctx, call{
		op:     "update_user",
		method: "PATCH",
		path:   userPath(id),
		auth:   authRequired,
		in:     map[string]any{field: value},
	})
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, call{op: "delete_user", method: "DELETE", path: userPath(id), auth: authRequired})
}

// PermissionRepo implements ports.PermissionRepository over /permisos.
type PermissionRepo struct {
	c *Client
}

func NewPermissionRepo(c *Client) *PermissionRepo {
	return &PermissionRepo{c: c}
}

func (r *PermissionRepo) List(ctx context.Context, userID int64) ([]domain.Permission, error) {
	var body jsonBody
	err := r.c.do(ctx, call{
		op:     "list_permissions",
		method: "GET",
		path:   "/permisos/" + strconv.FormatInt(userID, 10),
		auth:   authRequired,
		out:    &body,
	})
	if err != nil {
		if strings.EqualFold(backendMessage(err), noPermissionsMessage) {
			return []domain.Permission{}, nil
		}
		return nil, err
	}

	raw, ok := envelope(body, "permisos")
	if !ok {
		return []domain.Permission{}, nil
	}
	var dtos []permissionDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}

	perms := make([]domain.Permission, 0, len(dtos))
	for _, d := range dtos {
		perms = append(perms, domain.Permission{ID: int64(d.ID), Name: d.Name})
	}
	return perms, nil
}

// Replace overwrites the permission set. The body is a bare array of names.
func (r *PermissionRepo) Replace(ctx context.Context, userID int64, names []string) error {
	if names == nil {
		names = []string{}
	}
	return r.c.do(ctx, call{
		op:     "set_permissions",
		method: "PATCH",
		path:   "/permisos/" + strconv.FormatInt(userID, 10),
		auth:   authRequired,
		in:     names,
	})
}
