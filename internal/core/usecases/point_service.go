package usecases

import (
	"context"
	"log/slog"
	"sort"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/geospatial"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

// FilterAndSort keeps the points matching filter and, when user is known,
// orders them by ascending distance from user. Without a user location the
// server order is kept. The input slice is never modified.
func FilterAndSort(points []domain.PointOfInterest, filter domain.CategoryFilter, user *domain.Coordinate) []domain.PointOfInterest {
	out := make([]domain.PointOfInterest, 0, len(points))
	for _, p := range points {
		if !filter.Matches(p.Category) {
			continue
		}
		p.Distance = ""
		if user != nil {
			p.Distance = geospatial.CalculateDistance(user.Latitude, user.Longitude, p.Location.Latitude, p.Location.Longitude)
		}
		out = append(out, p)
	}

	if user != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return geospatial.ParseDistance(out[i].Distance) < geospatial.ParseDistance(out[j].Distance)
		})
	}
	return out
}

// PointService handles point-of-interest business logic.
type PointService struct {
	points ports.PointRepository
	notes  *NotificationService
}

// NewPointService creates a new PointService.
func NewPointService(points ports.PointRepository, notes *NotificationService) *PointService {
	return &PointService{points: points, notes: notes}
}

// List fetches every point of interest. A failed fetch yields an empty list.
func (s *PointService) List(ctx context.Context) []domain.PointOfInterest {
	points, err := s.points.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "fetch points of interest", "error", err)
		metrics.ReadFallbacks.WithLabelValues("points").Inc()
		return []domain.PointOfInterest{}
	}
	if points == nil {
		points = []domain.PointOfInterest{}
	}
	return points
}

// Nearby fetches the points and runs them through FilterAndSort.
func (s *PointService) Nearby(ctx context.Context, filter domain.CategoryFilter, user *domain.Coordinate) []domain.PointOfInterest {
	return FilterAndSort(s.List(ctx), filter, user)
}

// Create registers a new point of interest. Every field is required.
func (s *PointService) Create(ctx context.Context, p domain.NewPoint) error {
	if err := validateInput(p); err != nil {
		return err
	}
	if !p.Category.Valid() {
		return &domain.ValidationError{Fields: map[string]string{"category": "is invalid"}}
	}

	err := s.points.Create(ctx, p)
	s.notes.Record(ctx, "create_point", err)
	return err
}
