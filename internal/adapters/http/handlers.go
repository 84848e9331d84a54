package http

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/usecases"
	"github.com/encinapp/encinapp/internal/pkg/geospatial"
)

// DistanceResponse is the result of the distance calculator.
type DistanceResponse struct {
	From       domain.Coordinate `json:"from"`
	To         domain.Coordinate `json:"to"`
	DistanceKm string            `json:"distance_km"`
}

// AddressResponse is a reverse-geocoded coordinate.
type AddressResponse struct {
	Location domain.Coordinate `json:"location"`
	Address  string            `json:"address"`
}

// ListPointsHandler fetches the points of interest and runs them through
// the category filter and distance sort.
func ListPointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := domain.ParseCategoryFilter(c.Query("category"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		var user *domain.Coordinate
		if c.Query("lat") != "" || c.Query("lon") != "" {
			user, err = queryCoordinate(c, "lat", "lon")
			if err != nil {
				return errBadRequest(c, err.Error())
			}
		}

		points := deps.Points.Nearby(c.UserContext(), filter, user)
		return c.JSON(points)
	}
}

// CreatePointHandler registers a new point of interest.
func CreatePointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.NewPoint
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if err := deps.Points.Create(c.UserContext(), in); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusCreated)
	}
}

// DistanceHandler returns the great-circle distance between two coordinates.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryCoordinate(c, "lat1", "lon1")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := queryCoordinate(c, "lat2", "lon2")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(DistanceResponse{
			From:       *from,
			To:         *to,
			DistanceKm: geospatial.CalculateDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude),
		})
	}
}

// LocationHandler locates the device and resolves its address.
func LocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Geo.Locate(c.UserContext()))
	}
}

// PushLocationHandler accepts a fix from the device, including its
// permission state.
func PushLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Locations == nil {
			return errConflict(c, "location source does not accept device fixes")
		}

		var fix domain.LocationFix
		if err := c.BodyParser(&fix); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if fix.PermissionGranted {
			if err := checkCoordinate(fix.Location); err != nil {
				return errBadRequest(c, err.Error())
			}
		}

		deps.Locations.Update(fix)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GeocodeHandler reverse-geocodes a coordinate. Lookup failures yield the
// placeholder address, never an error.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		at, err := queryCoordinate(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(AddressResponse{
			Location: *at,
			Address:  deps.Geo.ReverseGeocode(c.UserContext(), *at),
		})
	}
}

// ---- Alerts ----

// EmitAlertRequest is the body of POST /v1/alerts. Without a location the
// current device position is used.
type EmitAlertRequest struct {
	Category domain.Category    `json:"category"`
	Location *domain.Coordinate `json:"location,omitempty"`
}

// ListAlertsHandler returns the active alerts with ?active=true, and the
// history split by activity otherwise.
func ListAlertsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch strings.ToLower(c.Query("active")) {
		case "true", "1":
			return c.JSON(deps.Alerts.ListActive(c.UserContext()))
		case "false", "0":
			return c.JSON(deps.Alerts.History(c.UserContext()).Inactive)
		case "":
			return c.JSON(deps.Alerts.History(c.UserContext()))
		}
		return errBadRequest(c, "active must be true or false")
	}
}

// AlertDraftHandler prepares the emit confirmation for a category.
func AlertDraftHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		category, err := domain.ParseCategory(c.Query("category"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		draft, err := deps.Alerts.Draft(c.UserContext(), category)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(draft)
	}
}

// EmitAlertHandler sends a new alert.
func EmitAlertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in EmitAlertRequest
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if in.Location != nil {
			if err := checkCoordinate(*in.Location); err != nil {
				return errBadRequest(c, err.Error())
			}
		}

		alert, err := deps.Alerts.Emit(c.UserContext(), in.Category, in.Location)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(alert)
	}
}

// GetAlertHandler returns the alert detail view.
func GetAlertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		detail, err := deps.Alerts.Detail(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(detail)
	}
}

// DeleteAlertHandler removes an alert.
func DeleteAlertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Alerts.Delete(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AddCommentHandler posts to an alert's thread.
func AddCommentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var in domain.NewComment
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid body: "+err.Error())
		}
		if err := deps.Alerts.AddComment(c.UserContext(), id, in); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusCreated)
	}
}

// DeleteCommentHandler removes a comment from an alert's thread.
func DeleteCommentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		cid, err := paramID(c, "cid")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := deps.Alerts.DeleteComment(c.UserContext(), id, cid); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- Map ----

// MapViewHandler returns the current map snapshot without refetching.
func MapViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Map.View())
	}
}

// MapRefreshHandler re-runs the fetch sequence.
func MapRefreshHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Map.Refresh(c.UserContext()))
	}
}

// MapFilterHandler changes the category filter of the map.
func MapFilterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := domain.ParseCategoryFilter(c.Query("category"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(deps.Map.SetFilter(filter))
	}
}

// MapSelectAlertHandler opens the navigation confirmation for an alert marker.
func MapSelectAlertHandler(deps *Dependencies) fiber.Handler {
	return mapTransition(func(c *fiber.Ctx) (usecases.MapView, error) {
		id, err := paramID(c, "id")
		if err != nil {
			return usecases.MapView{}, &domain.ValidationError{Fields: map[string]string{"id": err.Error()}}
		}
		return deps.Map.SelectAlert(id)
	})
}

// MapConfirmNavigationHandler confirms the pending navigation and returns
// where it leads.
func MapConfirmNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target, err := deps.Map.ConfirmNavigation()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(target)
	}
}

// MapCancelNavigationHandler dismisses the navigation confirmation.
func MapCancelNavigationHandler(deps *Dependencies) fiber.Handler {
	return mapTransition(func(*fiber.Ctx) (usecases.MapView, error) {
		return deps.Map.CancelNavigation()
	})
}

// MapSelectPointHandler opens the details of a point-of-interest marker.
func MapSelectPointHandler(deps *Dependencies) fiber.Handler {
	return mapTransition(func(c *fiber.Ctx) (usecases.MapView, error) {
		id, err := paramID(c, "id")
		if err != nil {
			return usecases.MapView{}, &domain.ValidationError{Fields: map[string]string{"id": err.Error()}}
		}
		return deps.Map.SelectPoint(id)
	})
}

// MapDismissDetailsHandler closes the point-of-interest details.
func MapDismissDetailsHandler(deps *Dependencies) fiber.Handler {
	return mapTransition(func(*fiber.Ctx) (usecases.MapView, error) {
		return deps.Map.DismissDetails()
	})
}

func mapTransition(fn func(c *fiber.Ctx) (usecases.MapView, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := fn(c)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	}
}

// ---- helpers ----

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

func queryCoordinate(c *fiber.Ctx, latKey, lonKey string) (*domain.Coordinate, error) {
	if c.Query(latKey) == "" || c.Query(lonKey) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, latKey+" and "+lonKey+" are required")
	}
	lat, err := strconv.ParseFloat(c.Query(latKey), 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, latKey+" must be a number")
	}
	lon, err := strconv.ParseFloat(c.Query(lonKey), 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, lonKey+" must be a number")
	}

	at := domain.Coordinate{Latitude: lat, Longitude: lon}
	if err := checkCoordinate(at); err != nil {
		return nil, err
	}
	return &at, nil
}

func checkCoordinate(at domain.Coordinate) error {
	if math.IsNaN(at.Latitude) || at.Latitude < -90 || at.Latitude > 90 {
		return fiber.NewError(fiber.StatusBadRequest, "latitude must be between -90 and 90")
	}
	if math.IsNaN(at.Longitude) || at.Longitude < -180 || at.Longitude > 180 {
		return fiber.NewError(fiber.StatusBadRequest, "longitude must be between -180 and 180")
	}
	return nil
}
