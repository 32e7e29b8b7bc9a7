package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Infinity2209/user/pkg/access"
)

// LoginResult describes a successful login, for confirmation messages.
type LoginResult struct {
	User      access.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// WhoAmI is the server's view of the current token.
type WhoAmI struct {
	User         access.Identity `json:"user"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Capabilities []string        `json:"capabilities"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a token and stores the new session.
// The read cache is purged since the new identity may see different data.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := c.session.Login(ctx, res.User, res.Token); err != nil {
		return nil, err
	}
	c.cache.Purge()
	return &res, nil
}

// Logout revokes the token on the server and clears the local session. The
// local session is cleared even if the server cannot be reached or already
// considers the token invalid; the server error is returned in that case.
func (c *Client) Logout(ctx context.Context) error {
	if c.session.State() == Anonymous {
		return nil
	}

	remoteErr := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if remoteErr != nil && errors.Is(remoteErr, ErrUnauthenticated) {
		remoteErr = nil
	}

	localErr := c.session.Logout(ctx)
	c.cache.Purge()

	if remoteErr != nil {
		return fmt.Errorf("logout: %w", remoteErr)
	}
	return localErr
}

// WhoAmI asks the server who the current token belongs to.
func (c *Client) WhoAmI(ctx context.Context) (*WhoAmI, error) {
	if c.session.State() == Anonymous {
		return nil, ErrUnauthenticated
	}
	var res WhoAmI
	if err := c.do(ctx, http.MethodGet, "/auth/whoami", nil, &res); err != nil {
		return nil, fmt.Errorf("whoami: %w", err)
	}
	return &res, nil
}
