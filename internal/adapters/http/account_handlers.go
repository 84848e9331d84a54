package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// PermissionsRequest is the body of PUT /v1/users/:id/permissions.
type PermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// ---- Session ----

// LoginHandler exchanges RUT and PIN for a backend session.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var creds domain.Credentials
		if err := c.BodyParser(&creds); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		info, err := deps.Session.Login(c.UserContext(), creds)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(info)
	}
}

// LogoutHandler drops the session token.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Session.Logout(c.UserContext()); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SessionHandler reports whether a user is logged in.
func SessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Session.Info())
	}
}

// ---- Users ----

// ListUsersHandler returns the neighbor directory, paginated.
func ListUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users := deps.Directory.ListUsers(c.UserContext())
		return c.JSON(paginate(c, users, 100))
	}
}

// GetUserHandler returns a single neighbor.
func GetUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		u, err := deps.Directory.GetUser(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	}
}

// RegisterUserHandler adds a neighbor.
func RegisterUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.NewUser
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if err := deps.Directory.Register(c.UserContext(), in); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusCreated)
	}
}

// UpdateUserHandler changes one attribute of a neighbor. The body holds a
// single field, e.g. {"address": "Prat 100"}.
func UpdateUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if len(body) != 1 {
			return errBadRequest(c, "body must contain exactly one field")
		}
		for field, value := range body {
			if err := deps.Directory.UpdateField(c.UserContext(), id, field, value); err != nil {
				return respondError(c, err)
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ChangePINHandler sets a new PIN for a neighbor.
func ChangePINHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var in domain.PINChange
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if err := deps.Directory.ChangePIN(c.UserContext(), id, in); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteUserHandler removes a neighbor.
func DeleteUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Directory.DeleteUser(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UserPermissionsHandler lists a neighbor's permissions.
func UserPermissionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(deps.Directory.Permissions(c.UserContext(), id))
	}
}

// SetPermissionsHandler replaces a neighbor's permissions.
func SetPermissionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var in PermissionsRequest
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if err := deps.Directory.SetPermissions(c.UserContext(), id, in.Permissions); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- Announcements ----

// ListAnnouncementsHandler returns the bulletin, paginated.
func ListAnnouncementsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list := deps.Announcements.List(c.UserContext())
		return c.JSON(paginate(c, list, 50))
	}
}

// PublishAnnouncementHandler posts an announcement as the logged-in user.
func PublishAnnouncementHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.NewAnnouncement
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		a, err := deps.Announcements.Publish(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// ---- Notifications ----

// ListNotificationsHandler returns recent write outcomes, newest first.
func ListNotificationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all := strings.EqualFold(c.Query("include_dismissed"), "true")
		list, err := deps.Notifications.List(c.UserContext(), all, c.QueryInt("limit", 50))
		if err != nil {
			return errInternal(c, err.Error())
		}
		if list == nil {
			list = []domain.Notification{}
		}
		return c.JSON(list)
	}
}

// DismissNotificationHandler hides a notification from the default feed.
func DismissNotificationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Notifications.Dismiss(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
