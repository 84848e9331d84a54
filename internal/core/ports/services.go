package ports

import (
	"context"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// LocationProvider yields the device position. It returns
// domain.ErrPermissionDenied when the user refused location access.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (domain.Coordinate, error)
}

// Address is a reverse-geocoding result.
type Address struct {
	Street string `json:"street"`
	Number string `json:"number"`
	City   string `json:"city"`
}

// Geocoder resolves coordinates to addresses.
type Geocoder interface {
	Reverse(ctx context.Context, c domain.Coordinate) (*Address, error)
}

// Credentials supplies the token sent with each backend call.
type Credentials interface {
	Token(ctx context.Context) (string, error)
}

// TokenStore persists the session token between restarts.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string, ttlSeconds int) error
	Delete(ctx context.Context) error
}

// EventPublisher publishes alert events to a message broker.
type EventPublisher interface {
	PublishAlertEvent(ctx context.Context, event *domain.AlertEvent) error
}

// EventSubscriber subscribes to device location fixes.
type EventSubscriber interface {
	SubscribeLocationFixes(ctx context.Context, handler func(ctx context.Context, fix *domain.LocationFix) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
