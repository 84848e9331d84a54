package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/usecases"
	"github.com/encinapp/encinapp/internal/pkg/geospatial"
)

func samplePoints() []domain.PointOfInterest {
	return []domain.PointOfInterest{
		{ID: 1, Name: "Far security", Category: domain.CategorySecurity, Location: domain.Coordinate{Latitude: -38.8000, Longitude: -72.6500}},
		{ID: 2, Name: "Clinic", Category: domain.CategoryHealth, Location: domain.Coordinate{Latitude: -38.7400, Longitude: -72.5950}},
		{ID: 3, Name: "Near security", Category: domain.CategorySecurity, Location: domain.Coordinate{Latitude: -38.7350, Longitude: -72.5900}},
		{ID: 4, Name: "Fire station", Category: domain.CategoryIncident, Location: domain.Coordinate{Latitude: -38.7000, Longitude: -72.5000}},
	}
}

func ids(points []domain.PointOfInterest) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.ID
	}
	return out
}

func TestFilterAndSort_CategoryKeepsServerOrder(t *testing.T) {
	got := usecases.FilterAndSort(samplePoints(), domain.FilterBy(domain.CategorySecurity), nil)

	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	for _, p := range got {
		if p.Category != domain.CategorySecurity {
			t.Errorf("unexpected category %s for point %d", p.Category, p.ID)
		}
		if p.Distance != "" {
			t.Errorf("expected no distance without user location, got %q", p.Distance)
		}
	}
	if got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("expected server order [1 3], got %v", ids(got))
	}
}

func TestFilterAndSort_AllIsNoOp(t *testing.T) {
	got := usecases.FilterAndSort(samplePoints(), domain.FilterAll, nil)
	want := []int64{1, 2, 3, 4}
	for i, id := range ids(got) {
		if id != want[i] {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	}
}

func TestFilterAndSort_SortsByDistance(t *testing.T) {
	user := &domain.Coordinate{Latitude: -38.7359, Longitude: -72.5904}
	got := usecases.FilterAndSort(samplePoints(), domain.FilterAll, user)

	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	if got[0].ID != 3 {
		t.Errorf("expected nearest point 3 first, got %d", got[0].ID)
	}
	prev := -1.0
	for _, p := range got {
		d := geospatial.ParseDistance(p.Distance)
		if d < prev {
			t.Errorf("distances not non-decreasing: %v", got)
		}
		prev = d
	}
}

func TestFilterAndSort_NearBeforeFar(t *testing.T) {
	user := &domain.Coordinate{Latitude: -38.7359, Longitude: -72.5904}
	points := []domain.PointOfInterest{
		{ID: 10, Name: "far", Category: domain.CategoryHealth, Location: domain.Coordinate{Latitude: -38.8000, Longitude: -72.6500}},
		{ID: 11, Name: "near", Category: domain.CategoryHealth, Location: domain.Coordinate{Latitude: -38.7350, Longitude: -72.5900}},
	}

	got := usecases.FilterAndSort(points, domain.FilterAll, user)
	if got[0].Name != "near" || got[1].Name != "far" {
		t.Errorf("expected near then far, got %s then %s", got[0].Name, got[1].Name)
	}
}

func TestFilterAndSort_DoesNotMutateInput(t *testing.T) {
	points := samplePoints()
	user := &domain.Coordinate{Latitude: -38.7359, Longitude: -72.5904}

	_ = usecases.FilterAndSort(points, domain.FilterAll, user)

	for i, p := range points {
		if p.Distance != "" {
			t.Errorf("input point %d was annotated", p.ID)
		}
		if p.ID != int64(i+1) {
			t.Errorf("input reordered: %v", ids(points))
		}
	}
}

func TestFilterAndSort_TiesKeepRelativeOrder(t *testing.T) {
	user := &domain.Coordinate{Latitude: 0, Longitude: 0}
	same := domain.Coordinate{Latitude: 0.01, Longitude: 0}
	points := []domain.PointOfInterest{
		{ID: 7, Category: domain.CategoryHealth, Location: same},
		{ID: 5, Category: domain.CategoryHealth, Location: same},
		{ID: 6, Category: domain.CategoryHealth, Location: same},
	}
	got := usecases.FilterAndSort(points, domain.FilterAll, user)
	if got[0].ID != 7 || got[1].ID != 5 || got[2].ID != 6 {
		t.Errorf("expected stable order [7 5 6], got %v", ids(got))
	}
}

func TestPointService_ListFailureYieldsEmpty(t *testing.T) {
	repo := &mockPointRepo{
		listFn: func(ctx context.Context) ([]domain.PointOfInterest, error) {
			return nil, errBackendDown
		},
	}
	svc := usecases.NewPointService(repo, nil)

	got := svc.List(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %v", got)
	}
}

func TestPointService_Create_RequiresAllFields(t *testing.T) {
	called := false
	repo := &mockPointRepo{
		createFn: func(ctx context.Context, p domain.NewPoint) error {
			called = true
			return nil
		},
	}
	svc := usecases.NewPointService(repo, usecases.NewNotificationService(nil))

	err := svc.Create(context.Background(), domain.NewPoint{Category: domain.CategoryHealth, Name: "Posta"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["contact"]; !ok {
		t.Errorf("expected contact to be reported, got %v", verr.Fields)
	}
	if called {
		t.Error("backend must not be called when validation fails")
	}
}

func TestPointService_Create_SurfacesBackendError(t *testing.T) {
	repo := &mockPointRepo{
		createFn: func(ctx context.Context, p domain.NewPoint) error { return errBackendDown },
	}
	notes := usecases.NewNotificationService(nil)
	svc := usecases.NewPointService(repo, notes)

	err := svc.Create(context.Background(), domain.NewPoint{
		Category: domain.CategoryHealth,
		Name:     "Posta",
		Contact:  "+56 9 1234 5678",
		Location: domain.Coordinate{Latitude: -38.7, Longitude: -72.6},
	})
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}

	list, _ := notes.List(context.Background(), false, 10)
	if len(list) != 1 || !list[0].Failed || list[0].Action != "create_point" {
		t.Errorf("expected one failed create_point notification, got %+v", list)
	}
}
