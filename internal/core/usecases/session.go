package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
)

// defaultTokenTTL is used for tokens that carry no exp claim.
const defaultTokenTTL = 24 * time.Hour

// SessionInfo describes the authenticated user, if any.
type SessionInfo struct {
	Authenticated bool       `json:"authenticated"`
	UserID        int64      `json:"user_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Session holds the backend token for the current user. Backend clients
// receive it as ports.Credentials and ask for the token on every call, so
// Logout takes effect immediately.
type Session struct {
	auth  ports.AuthGateway
	store ports.TokenStore
	notes *NotificationService
	now   func() time.Time

	mu      sync.RWMutex
	token   string
	userID  int64
	expires time.Time
}

// NewSession creates a logged-out session. store may be nil.
func NewSession(auth ports.AuthGateway, store ports.TokenStore, notes *NotificationService) *Session {
	return &Session{auth: auth, store: store, notes: notes, now: time.Now}
}

// Login exchanges RUT and PIN for a token and keeps it.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) (SessionInfo, error) {
	if err := validateInput(creds); err != nil {
		return SessionInfo{}, err
	}

	token, err := s.auth.Login(ctx, creds)
	if err == nil {
		err = s.adopt(ctx, token, true)
	}
	s.notes.Record(ctx, "login", err)
	if err != nil {
		return SessionInfo{}, err
	}
	return s.Info(), nil
}

// Restore reloads a token persisted by an earlier Login.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return domain.ErrUnauthenticated
	}
	token, err := s.store.Load(ctx)
	if err != nil || token == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.adopt(ctx, token, false); err != nil {
		_ = s.store.Delete(ctx)
		return err
	}
	return nil
}

// Logout drops the token from memory and from the store.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.userID, s.expires = "", 0, time.Time{}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Delete(ctx); err != nil {
			return fmt.Errorf("delete stored token: %w", err)
		}
	}
	return nil
}

// Token implements ports.Credentials.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", domain.ErrUnauthenticated
	}
	if !s.expires.IsZero() && !s.now().Before(s.expires) {
		return "", domain.ErrSessionExpired
	}
	return s.token, nil
}

// UserID returns the id claim of the current token.
func (s *Session) UserID(ctx context.Context) (int64, error) {
	if _, err := s.Token(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == 0 {
		return 0, fmt.Errorf("%w: token has no user id", domain.ErrUnauthenticated)
	}
	return s.userID, nil
}

// Info reports the current session state.
func (s *Session) Info() SessionInfo {
	if _, err := s.Token(context.Background()); err != nil {
		return SessionInfo{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := SessionInfo{Authenticated: true, UserID: s.userID}
	if !s.expires.IsZero() {
		exp := s.expires
		info.ExpiresAt = &exp
	}
	return info
}

func (s *Session) adopt(ctx context.Context, token string, persist bool) error {
	claims, err := parseTokenClaims(token)
	if err != nil {
		return err
	}
	if !claims.expires.IsZero() && !s.now().Before(claims.expires) {
		return domain.ErrSessionExpired
	}

	s.mu.Lock()
	s.token, s.userID, s.expires = token, claims.userID, claims.expires
	s.mu.Unlock()

	if persist && s.store != nil {
		ttl := defaultTokenTTL
		if !claims.expires.IsZero() {
			ttl = claims.expires.Sub(s.now())
		}
		if err := s.store.Save(ctx, token, int(ttl.Seconds())+1); err != nil {
			slog.WarnContext(ctx, "persist session token", "error", err)
		}
	}
	return nil
}

type tokenClaims struct {
	userID  int64
	expires time.Time
}

// parseTokenClaims reads exp and id_usuario without verifying the signature.
func parseTokenClaims(token string) (tokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return tokenClaims{}, fmt.Errorf("decode token: %w", err)
	}

	var out tokenClaims
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return tokenClaims{}, fmt.Errorf("decode token exp: %w", err)
	}
	if exp != nil {
		out.expires = exp.Time
	}

	switch v := claims["id_usuario"].(type) {
	case float64:
		out.userID = int64(v)
	case string:
		if _, err := fmt.Sscan(v, &out.userID); err != nil {
			return tokenClaims{}, errors.New("decode token: id_usuario is not numeric")
		}
	}
	return out, nil
}
