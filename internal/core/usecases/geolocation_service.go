package usecases

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/geospatial"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// GeolocationService acquires the device position and resolves addresses.
type GeolocationService struct {
	provider ports.LocationProvider
	geocoder ports.Geocoder
	cache    ports.CacheService
}

// NewGeolocationService creates a new GeolocationService. cache may be nil.
func NewGeolocationService(provider ports.LocationProvider, geocoder ports.Geocoder, cache ports.CacheService) *GeolocationService {
	return &GeolocationService{provider: provider, geocoder: geocoder, cache: cache}
}

// CurrentLocation returns the device position. When the user denied access
// it returns domain.ErrPermissionDenied and a nil coordinate.
func (s *GeolocationService) CurrentLocation(ctx context.Context) (*domain.Coordinate, error) {
	if s.provider == nil {
		return nil, domain.ErrLocationUnavailable
	}

	c, err := s.provider.CurrentLocation(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			metrics.LocationDenied.Inc()
			slog.InfoContext(ctx, "location permission denied")
			return nil, domain.ErrPermissionDenied
		}
		return nil, err
	}
	return &c, nil
}

// ReverseGeocode formats the address at c as "{street} {number}, {city}".
// It never fails: any error or empty result yields domain.AddressNotFound.
func (s *GeolocationService) ReverseGeocode(ctx context.Context, c domain.Coordinate) string {
	if s.geocoder == nil {
		metrics.GeocodeFallbacks.Inc()
		return domain.AddressNotFound
	}

	key := "geocode:" + geospatial.Cell(c.Latitude, c.Longitude)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("geocode").Inc()
			return string(data)
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	addr, err := s.geocoder.Reverse(ctx, c)
	if err != nil {
		slog.WarnContext(ctx, "reverse geocode failed", "error", err)
		metrics.GeocodeFallbacks.Inc()
		return domain.AddressNotFound
	}

	formatted := FormatAddress(addr)
	if formatted == "" {
		metrics.GeocodeFallbacks.Inc()
		return domain.AddressNotFound
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, []byte(formatted), 86400)
	}
	return formatted
}

// Locate combines CurrentLocation and ReverseGeocode. Failures degrade to a
// location-less result with a placeholder address.
func (s *GeolocationService) Locate(ctx context.Context) domain.UserLocation {
	c, err := s.CurrentLocation(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrPermissionDenied) {
			slog.WarnContext(ctx, "current location unavailable", "error", err)
		}
		return domain.UserLocation{Address: domain.AddressUnavailable}
	}
	return domain.UserLocation{Location: c, Address: s.ReverseGeocode(ctx, *c)}
}

// FormatAddress renders "{street} {number}, {city}", skipping empty parts.
// It returns "" when neither street nor city is known.
func FormatAddress(a *ports.Address) string {
	if a == nil {
		return ""
	}
	street := strings.TrimSpace(strings.TrimSpace(a.Street) + " " + strings.TrimSpace(a.Number))
	city := strings.TrimSpace(a.City)

	switch {
	case strings.TrimSpace(a.Street) == "" && city == "":
		return ""
	case strings.TrimSpace(a.Street) == "":
		return city
	case city == "":
		return street
	}
	return street + ", " + city
}
