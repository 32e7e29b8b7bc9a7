package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/pkg/access"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	adminID = access.Identity{ID: "1", Name: "Admin User", Email: "admin@company.com", Role: access.RoleAdmin}
	userID  = access.Identity{ID: "2", Name: "Regular User", Email: "user@company.com", Role: access.RoleUser}
)

func newChain(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()

	tokens, err := auth.NewTokenIssuer(testSecret, time.Hour, auth.NewRevocationList(time.Minute))
	require.NoError(t, err)

	authn, err := NewAuthnMiddleware(AuthnDependencies{Tokens: tokens})
	require.NoError(t, err)
	authz, err := NewAuthzMiddleware(AuthzDependencies{
		Gate:  access.MustNewGate(access.DefaultPolicy()),
		Kinds: []string{"users", "products"},
	})
	require.NoError(t, err)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return authn(authz(final)), tokens
}

func bearer(t *testing.T, tokens *auth.TokenIssuer, id access.Identity) string {
	t.Helper()
	tok, err := tokens.Issue(id)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestAuthz_ResourceRoutes(t *testing.T) {
	chain, tokens := newChain(t)
	adminToken := bearer(t, tokens, adminID)
	userToken := bearer(t, tokens, userID)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
		wantError  string
	}{
		{"anonymous list users", http.MethodGet, "/users", "", http.StatusUnauthorized, "Unauthenticated"},
		{"anonymous list products", http.MethodGet, "/products", "", http.StatusUnauthorized, "Unauthenticated"},
		{"anonymous delete product", http.MethodDelete, "/products/1", "", http.StatusUnauthorized, "Unauthenticated"},
		{"garbage token", http.MethodGet, "/products", "Bearer nope", http.StatusUnauthorized, "Unauthenticated"},
		{"user lists products", http.MethodGet, "/products", userToken, http.StatusTeapot, ""},
		{"user reads product", http.MethodGet, "/products/3", userToken, http.StatusTeapot, ""},
		{"user creates product", http.MethodPost, "/products", userToken, http.StatusForbidden, "Forbidden"},
		{"user updates product", http.MethodPut, "/products/3", userToken, http.StatusForbidden, "Forbidden"},
		{"user deletes product", http.MethodDelete, "/products/3", userToken, http.StatusForbidden, "Forbidden"},
		{"user lists users", http.MethodGet, "/users", userToken, http.StatusForbidden, "Forbidden"},
		{"user updates user", http.MethodPut, "/users/42", userToken, http.StatusForbidden, "Forbidden"},
		{"admin lists users", http.MethodGet, "/users", adminToken, http.StatusTeapot, ""},
		{"admin deletes user", http.MethodDelete, "/users/42", adminToken, http.StatusTeapot, ""},
		{"admin creates product", http.MethodPost, "/products/", adminToken, http.StatusTeapot, ""},
		{"options bypasses auth", http.MethodOptions, "/users", "", http.StatusTeapot, ""},
		{"unsupported method reaches handler", http.MethodTrace, "/users", "", http.StatusTeapot, ""},
		{"unknown resource passes", http.MethodGet, "/healthz", "", http.StatusTeapot, ""},
		{"deep path passes", http.MethodGet, "/users/1/extra", "", http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body["error"])
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAuthn_RevokedTokenIsAnonymous(t *testing.T) {
	chain, tokens := newChain(t)
	tok, err := tokens.Issue(adminID)
	require.NoError(t, err)

	claims, err := tokens.Verify(tok.Token)
	require.NoError(t, err)
	tokens.Revoke(claims)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthn_SetsPrincipal(t *testing.T) {
	tokens, err := auth.NewTokenIssuer(testSecret, time.Hour, nil)
	require.NoError(t, err)
	authn, err := NewAuthnMiddleware(AuthnDependencies{Tokens: tokens})
	require.NoError(t, err)

	var got auth.Principal
	var ok bool
	h := authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.GetPrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.Header.Set("Authorization", bearer(t, tokens, userID))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	assert.Equal(t, userID, got.Identity)
	assert.NotEmpty(t, got.TokenID)
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"Bearer":        "",
		"Bearer ":       "",
		"Basic abc":     "",
		"Bearer abc":    "abc",
		"bearer abc":    "abc",
		"Bearer  abc  ": "abc",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(req), "header %q", header)
	}
}

func TestNewMiddleware_RequiresDependencies(t *testing.T) {
	_, err := NewAuthnMiddleware(AuthnDependencies{})
	assert.Error(t, err)
	_, err = NewAuthzMiddleware(AuthzDependencies{})
	assert.Error(t, err)
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()

	h := chimw.RequestID(NewRequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	})))

	req := httptest.NewRequest(http.MethodGet, "/users/9", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/users/9", entry.Data["path"])
	assert.NotEmpty(t, entry.Data["request_id"])
	assert.Equal(t, len(`{"error":"User not found"}`), entry.Data["bytes"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusForbidden, "Forbidden")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	assert.True(t, bytes.HasSuffix(rec.Body.Bytes(), []byte("\n")))
}
