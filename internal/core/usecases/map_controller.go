package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
	"github.com/encinapp/encinapp/internal/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/encinapp/encinapp/internal/core/usecases")

// MapState is the interaction state of the map screen.
type MapState int

const (
	MapLoading MapState = iota
	MapReady
	MapEmpty
	MapConfirmingNavigation
	MapInspectingDetails
)

func (s MapState) String() string {
	switch s {
	case MapLoading:
		return "loading"
	case MapReady:
		return "ready"
	case MapEmpty:
		return "empty"
	case MapConfirmingNavigation:
		return "confirming_navigation"
	case MapInspectingDetails:
		return "inspecting_details"
	}
	return fmt.Sprintf("MapState(%d)", int(s))
}

func (s MapState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PointMarker is a point of interest as drawn on the map.
type PointMarker struct {
	Point  domain.PointOfInterest `json:"point"`
	Marker domain.Marker          `json:"marker"`
}

// AlertMarker is an alert as drawn on the map.
type AlertMarker struct {
	Alert  domain.Alert  `json:"alert"`
	Marker domain.Marker `json:"marker"`
}

// MapView is an immutable snapshot of the map screen.
type MapView struct {
	State         MapState                `json:"state"`
	Generation    uint64                  `json:"generation"`
	Filter        domain.CategoryFilter   `json:"filter"`
	Location      domain.UserLocation     `json:"location"`
	Points        []PointMarker           `json:"points"`
	Alerts        []AlertMarker           `json:"alerts"`
	SelectedAlert *domain.Alert           `json:"selected_alert,omitempty"`
	SelectedPoint *domain.PointOfInterest `json:"selected_point,omitempty"`
}

// NavigationTarget tells the UI where a confirmed selection leads.
type NavigationTarget struct {
	Screen  string `json:"screen"`
	AlertID int64  `json:"alert_id"`
}

// MapController drives the map screen: it fetches points of interest and
// active alerts alongside the device location, and tracks marker selection.
//
// Every Refresh takes a new generation; results of an older generation that
// arrive after a newer Refresh started are dropped.
type MapController struct {
	points *PointService
	alerts *AlertService
	geo    *GeolocationService

	mu         sync.Mutex
	generation uint64
	state      MapState
	filter     domain.CategoryFilter
	location   domain.UserLocation
	allPoints  []domain.PointOfInterest
	active     []domain.Alert
	alertSel   *domain.Alert
	pointSel   *domain.PointOfInterest
}

// NewMapController creates a controller in the Loading state.
func NewMapController(points *PointService, alerts *AlertService, geo *GeolocationService) *MapController {
	return &MapController{
		points:   points,
		alerts:   alerts,
		geo:      geo,
		state:    MapLoading,
		location: domain.UserLocation{Address: domain.AddressUnavailable},
	}
}

// Refresh re-runs the full fetch sequence, as on mount or when the screen
// regains focus. It returns the view after its results were applied, or the
// current view when a newer Refresh superseded it.
func (m *MapController) Refresh(ctx context.Context) MapView {
	ctx, span := tracer.Start(ctx, "MapController.Refresh")
	defer span.End()
	start := time.Now()

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.state = MapLoading
	m.alertSel, m.pointSel = nil, nil
	m.mu.Unlock()

	span.SetAttributes(attribute.Int64(telemetry.AttrMapGeneration, int64(gen)))

	var (
		wg       sync.WaitGroup
		location domain.UserLocation
		points   []domain.PointOfInterest
		alerts   []domain.Alert
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		location = m.geo.Locate(ctx)
	}()
	go func() {
		defer wg.Done()
		points = m.points.List(ctx)
	}()
	go func() {
		defer wg.Done()
		alerts = m.alerts.ListActive(ctx)
	}()
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		metrics.MapStaleDiscarded.Inc()
		slog.DebugContext(ctx, "discarding stale map refresh", "generation", gen, "latest", m.generation)
		span.SetAttributes(attribute.Bool(telemetry.AttrMapStale, true))
		return m.viewLocked()
	}

	m.location = location
	m.allPoints = points
	m.active = alerts
	m.state = MapEmpty
	if location.Available() && (len(points) > 0 || len(alerts) > 0) {
		m.state = MapReady
	}

	metrics.MapRefreshes.WithLabelValues(m.state.String()).Inc()
	metrics.MapRefreshDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String(telemetry.AttrMapState, m.state.String()))

	return m.viewLocked()
}

// View returns the current snapshot.
func (m *MapController) View() MapView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// SetFilter changes the category filter and re-sorts the last fetched points.
// It does not refetch.
func (m *MapController) SetFilter(f domain.CategoryFilter) MapView {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = f
	return m.viewLocked()
}

// SelectAlert opens the navigation confirmation for an alert marker.
func (m *MapController) SelectAlert(id int64) (MapView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MapReady {
		return m.viewLocked(), fmt.Errorf("%w: select alert from %s", domain.ErrInvalidTransition, m.state)
	}
	for i := range m.active {
		if m.active[i].ID == id {
			a := m.active[i]
			m.alertSel = &a
			m.state = MapConfirmingNavigation
			return m.viewLocked(), nil
		}
	}
	return m.viewLocked(), fmt.Errorf("alert %d: %w", id, domain.ErrNotFound)
}

// ConfirmNavigation closes the confirmation and returns the alert-detail target.
func (m *MapController) ConfirmNavigation() (NavigationTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MapConfirmingNavigation || m.alertSel == nil {
		return NavigationTarget{}, fmt.Errorf("%w: confirm navigation from %s", domain.ErrInvalidTransition, m.state)
	}
	target := NavigationTarget{Screen: "alert_detail", AlertID: m.alertSel.ID}
	m.alertSel = nil
	m.state = MapReady
	return target, nil
}

// CancelNavigation closes the confirmation without navigating.
func (m *MapController) CancelNavigation() (MapView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MapConfirmingNavigation {
		return m.viewLocked(), fmt.Errorf("%w: cancel navigation from %s", domain.ErrInvalidTransition, m.state)
	}
	m.alertSel = nil
	m.state = MapReady
	return m.viewLocked(), nil
}

// SelectPoint opens the details of a point-of-interest marker.
func (m *MapController) SelectPoint(id int64) (MapView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MapReady {
		return m.viewLocked(), fmt.Errorf("%w: select point from %s", domain.ErrInvalidTransition, m.state)
	}
	for i := range m.allPoints {
		if m.allPoints[i].ID == id {
			p := m.allPoints[i]
			m.pointSel = &p
			m.state = MapInspectingDetails
			return m.viewLocked(), nil
		}
	}
	return m.viewLocked(), fmt.Errorf("point %d: %w", id, domain.ErrNotFound)
}

// DismissDetails closes the point-of-interest details.
func (m *MapController) DismissDetails() (MapView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MapInspectingDetails {
		return m.viewLocked(), fmt.Errorf("%w: dismiss details from %s", domain.ErrInvalidTransition, m.state)
	}
	m.pointSel = nil
	m.state = MapReady
	return m.viewLocked(), nil
}

// viewLocked builds a snapshot. Callers hold m.mu.
func (m *MapController) viewLocked() MapView {
	sorted := FilterAndSort(m.allPoints, m.filter, m.location.Location)

	v := MapView{
		State:      m.state,
		Generation: m.generation,
		Filter:     m.filter,
		Location:   m.location,
		Points:     make([]PointMarker, 0, len(sorted)),
		Alerts:     make([]AlertMarker, 0, len(m.active)),
	}
	for _, p := range sorted {
		v.Points = append(v.Points, PointMarker{Point: p, Marker: p.Category.PointMarker()})
	}
	for _, a := range m.active {
		v.Alerts = append(v.Alerts, AlertMarker{Alert: a, Marker: a.Category.AlertMarker()})
	}
	if m.alertSel != nil {
		a := *m.alertSel
		v.SelectedAlert = &a
	}
	if m.pointSel != nil {
		p := *m.pointSel
		v.SelectedPoint = &p
	}
	if m.location.Location != nil {
		c := *m.location.Location
		v.Location.Location = &c
	}
	return v
}
