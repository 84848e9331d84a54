package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// AuthGateway implements ports.AuthGateway over /auth/login.
type AuthGateway struct {
	c *Client
}

func NewAuthGateway(c *Client) *AuthGateway {
	return &AuthGateway{c: c}
}

// Login exchanges RUT and PIN for a session token.
func (g *AuthGateway) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := g.c.do(ctx, call{
		op:     "login",
		method: "POST",
		path:   "/auth/login",
		auth:   authNone,
		in:     map[string]string{"rut": creds.RUT, "pin": creds.PIN},
		out:    &out,
	})
	if err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) && (be.Status == 400 || be.Status == 401 || be.Status == 404) {
			return "", fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, be.Message)
		}
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login: %w: reply carried no token", domain.ErrInvalidCredentials)
	}
	return out.Token, nil
}
