package http

import (
	"github.com/nats-io/nats.go"

	"github.com/encinapp/encinapp/internal/adapters/postgres"
	"github.com/encinapp/encinapp/internal/adapters/valkey"
	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/usecases"
)

// LocationSink accepts fixes pushed by the device.
type LocationSink interface {
	Update(fix domain.LocationFix)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Map           *usecases.MapController
	Points        *usecases.PointService
	Alerts        *usecases.AlertService
	Geo           *usecases.GeolocationService
	Session       *usecases.Session
	Directory     *usecases.DirectoryService
	Announcements *usecases.AnnouncementService
	Notifications *usecases.NotificationService
	Locations     LocationSink // nil when the location source is static
	NATS          *nats.Conn
	DB            *postgres.DB
	Cache         *valkey.Cache
	Version       string
}
