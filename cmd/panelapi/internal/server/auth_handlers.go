package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/Infinity2209/user/pkg/access"
	"github.com/sirupsen/logrus"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the identity and bearer token of a new session.
type LoginResponse struct {
	User      access.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// WhoAmIResponse describes the caller's token.
type WhoAmIResponse struct {
	User         access.Identity `json:"user"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Capabilities []string        `json:"capabilities"`
}

// HandleLogin verifies email and password against the account repository and issues a token.
func HandleLogin(accounts repository.AccountRepository, tokens *auth.TokenIssuer, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Missing email or password")
			return
		}

		account, err := accounts.GetByEmail(ctx, req.Email)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.WithError(err).Error("account lookup failed")
			}
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		if err := auth.VerifyPassword(account.PasswordHash, req.Password); err != nil {
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}

		identity := access.Identity{
			ID:    account.ID,
			Name:  account.Name,
			Email: account.Email,
			Role:  account.Role,
		}
		issued, err := tokens.Issue(identity)
		if err != nil {
			log.WithError(err).Error("issue token")
			writeError(w, http.StatusInternalServerError, "Failed to issue token")
			return
		}

		if err := accounts.UpdateLastLogin(ctx, account.ID, time.Now()); err != nil {
			log.WithError(err).WithField("account", account.ID).Warn("record last login")
		}
		log.WithFields(logrus.Fields{"principal": account.Email, "role": account.Role}).Info("login")

		writeJSON(w, http.StatusOK, LoginResponse{
			User:      identity,
			Token:     issued.Token,
			ExpiresAt: issued.ExpiresAt,
		})
	}
}

// HandleLogout revokes the presented token until it expires.
func HandleLogout(tokens *auth.TokenIssuer, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.GetPrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "No active session")
			return
		}

		tokens.Revoke(principal.Claims)
		log.WithField("principal", principal.Identity.Email).Info("logout")
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

// HandleWhoAmI returns the identity bound to the bearer token and what it may do.
func HandleWhoAmI(gate *access.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.GetPrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, msgUnauthenticated)
			return
		}

		resp := WhoAmIResponse{
			User:         principal.Identity,
			ExpiresAt:    principal.ExpiresAt,
			Capabilities: []string{},
		}
		if gate != nil {
			resp.Capabilities = gate.Capabilities(principal.Identity.Role)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
