package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
)

var errBackendDown = errors.New("dial tcp: connection refused")

// --- Mock PointRepository ---

type mockPointRepo struct {
	listFn   func(ctx context.Context) ([]domain.PointOfInterest, error)
	createFn func(ctx context.Context, p domain.NewPoint) error
}

func (m *mockPointRepo) List(ctx context.Context) ([]domain.PointOfInterest, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPointRepo) Create(ctx context.Context, p domain.NewPoint) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

// --- Mock AlertRepository ---

type mockAlertRepo struct {
	listFn    func(ctx context.Context, activeOnly bool) ([]domain.Alert, error)
	getByIDFn func(ctx context.Context, id int64) (*domain.Alert, error)
	createFn  func(ctx context.Context, a domain.NewAlert) (*domain.Alert, error)
	deleteFn  func(ctx context.Context, id int64) error
}

func (m *mockAlertRepo) List(ctx context.Context, activeOnly bool) ([]domain.Alert, error) {
	if m.listFn != nil {
		return m.listFn(ctx, activeOnly)
	}
	return nil, nil
}

func (m *mockAlertRepo) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAlertRepo) Create(ctx context.Context, a domain.NewAlert) (*domain.Alert, error) {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil, nil
}

func (m *mockAlertRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock CommentRepository ---

type mockCommentRepo struct {
	listFn   func(ctx context.Context, alertID int64) ([]domain.Comment, error)
	createFn func(ctx context.Context, alertID int64, c domain.NewComment) error
	deleteFn func(ctx context.Context, alertID, commentID int64) error
}

func (m *mockCommentRepo) List(ctx context.Context, alertID int64) ([]domain.Comment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, alertID)
	}
	return nil, nil
}

func (m *mockCommentRepo) Create(ctx context.Context, alertID int64, c domain.NewComment) error {
	if m.createFn != nil {
		return m.createFn(ctx, alertID, c)
	}
	return nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, alertID, commentID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, alertID, commentID)
	}
	return nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	listFn        func(ctx context.Context) ([]domain.User, error)
	getByIDFn     func(ctx context.Context, id int64) (*domain.User, error)
	createFn      func(ctx context.Context, u domain.NewUser) error
	updateFieldFn func(ctx context.Context, id int64, field string, value any) error
	deleteFn      func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.NewUser) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) UpdateField(ctx context.Context, id int64, field string, value any) error {
	if m.updateFieldFn != nil {
		return m.updateFieldFn(ctx, id, field, value)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock PermissionRepository ---

type mockPermRepo struct {
	listFn    func(ctx context.Context, userID int64) ([]domain.Permission, error)
	replaceFn func(ctx context.Context, userID int64, names []string) error
}

func (m *mockPermRepo) List(ctx context.Context, userID int64) ([]domain.Permission, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockPermRepo) Replace(ctx context.Context, userID int64, names []string) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, userID, names)
	}
	return nil
}

// --- Mock AnnouncementRepository ---

type mockAnnouncementRepo struct {
	listFn   func(ctx context.Context) ([]domain.Announcement, error)
	createFn func(ctx context.Context, authorID int64, a domain.Announcement) error
}

func (m *mockAnnouncementRepo) List(ctx context.Context) ([]domain.Announcement, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, authorID int64, a domain.Announcement) error {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, a)
	}
	return nil
}

// --- Mock AuthGateway ---

type mockAuth struct {
	loginFn func(ctx context.Context, c domain.Credentials) (string, error)
}

func (m *mockAuth) Login(ctx context.Context, c domain.Credentials) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, c)
	}
	return "", errors.New("no login configured")
}

// --- Mock LocationProvider / Geocoder ---

type mockLocation struct {
	fn func(ctx context.Context) (domain.Coordinate, error)
}

func (m *mockLocation) CurrentLocation(ctx context.Context) (domain.Coordinate, error) {
	return m.fn(ctx)
}

func fixedLocation(lat, lon float64) *mockLocation {
	return &mockLocation{fn: func(ctx context.Context) (domain.Coordinate, error) {
		return domain.Coordinate{Latitude: lat, Longitude: lon}, nil
	}}
}

func deniedLocation() *mockLocation {
	return &mockLocation{fn: func(ctx context.Context) (domain.Coordinate, error) {
		return domain.Coordinate{}, domain.ErrPermissionDenied
	}}
}

type mockGeocoder struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, c domain.Coordinate) (*ports.Address, error)
}

func (m *mockGeocoder) Reverse(ctx context.Context, c domain.Coordinate) (*ports.Address, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fn(ctx, c)
}

func (m *mockGeocoder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock TokenStore ---

type mockTokenStore struct {
	token   string
	ttl     int
	deleted bool
}

func (m *mockTokenStore) Load(ctx context.Context) (string, error) {
	if m.token == "" {
		return "", errors.New("miss")
	}
	return m.token, nil
}

func (m *mockTokenStore) Save(ctx context.Context, token string, ttlSeconds int) error {
	m.token, m.ttl = token, ttlSeconds
	return nil
}

func (m *mockTokenStore) Delete(ctx context.Context) error {
	m.token, m.deleted = "", true
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	failFn func(e *domain.AlertEvent) error
	events []domain.AlertEvent
}

func (m *mockPublisher) PublishAlertEvent(ctx context.Context, e *domain.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFn != nil {
		if err := m.failFn(e); err != nil {
			return err
		}
	}
	m.events = append(m.events, *e)
	return nil
}
