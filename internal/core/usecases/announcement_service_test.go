package usecases_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/usecases"
)

func loggedInSession(t *testing.T, userID int64) *usecases.Session {
	t.Helper()
	token := signToken(t, jwt.MapClaims{"id_usuario": userID})
	auth := &mockAuth{loginFn: func(ctx context.Context, c domain.Credentials) (string, error) { return token, nil }}
	s := usecases.NewSession(auth, nil, nil)
	if _, err := s.Login(context.Background(), domain.Credentials{RUT: "1-9", PIN: "1234"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	return s
}

func TestAnnouncementService_Publish(t *testing.T) {
	var gotAuthor int64
	var got domain.Announcement
	repo := &mockAnnouncementRepo{createFn: func(ctx context.Context, authorID int64, a domain.Announcement) error {
		gotAuthor, got = authorID, a
		return nil
	}}
	svc := usecases.NewAnnouncementService(repo, loggedInSession(t, 21), nil)

	a, err := svc.Publish(context.Background(), domain.NewAnnouncement{
		Title: "Meeting", Body: "Neighborhood meeting", RelatedDate: "2026-11-01", Address: "Sede social",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuthor != 21 || a.AuthorID != 21 {
		t.Errorf("expected author 21, got %d", gotAuthor)
	}
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`).MatchString(got.IssuedAt) {
		t.Errorf("issue date should be YYYY-MM-DD, got %q", got.IssuedAt)
	}
}

func TestAnnouncementService_PublishRequiresSession(t *testing.T) {
	called := false
	repo := &mockAnnouncementRepo{createFn: func(ctx context.Context, authorID int64, a domain.Announcement) error {
		called = true
		return nil
	}}
	svc := usecases.NewAnnouncementService(repo, usecases.NewSession(&mockAuth{}, nil, nil), nil)

	_, err := svc.Publish(context.Background(), domain.NewAnnouncement{Title: "a", Body: "b", RelatedDate: "c", Address: "d"})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if called {
		t.Error("anonymous announcement must not reach the backend")
	}
}

func TestAnnouncementService_PublishValidates(t *testing.T) {
	svc := usecases.NewAnnouncementService(&mockAnnouncementRepo{}, loggedInSession(t, 1), nil)

	var verr *domain.ValidationError
	if _, err := svc.Publish(context.Background(), domain.NewAnnouncement{Title: "only a title"}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("expected 3 missing fields, got %v", verr.Fields)
	}
}

func TestAnnouncementService_ListFailureIsEmpty(t *testing.T) {
	repo := &mockAnnouncementRepo{listFn: func(ctx context.Context) ([]domain.Announcement, error) { return nil, errBackendDown }}
	svc := usecases.NewAnnouncementService(repo, nil, nil)

	if got := svc.List(context.Background()); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}
