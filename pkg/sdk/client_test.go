package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infinity2209/user/pkg/access"
)

// fakePanel is a minimal in-process panel API: two collections, token login
// and a request counter per method and path.
type fakePanel struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
	nextID      int
	tokens      map[string]access.Identity
	hits        map[string]int
	lastAuth    atomic.Value
}

func newFakePanel() *fakePanel {
	return &fakePanel{
		collections: map[string][]map[string]any{
			"users": {
				{"id": "1", "name": "Admin User", "email": "admin@company.com", "role": "admin"},
				{"id": "42", "name": "A", "email": "a@x.com", "role": "user"},
			},
			"products": {
				{"id": "1", "title": "Backpack", "price": 109.95, "category": "men's clothing"},
				{"id": "2", "title": "Gold Ring", "price": 168.0, "category": "jewelery"},
			},
		},
		nextID: 100,
		tokens: map[string]access.Identity{},
		hits:   map[string]int{},
	}
}

func (f *fakePanel) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

func (f *fakePanel) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakePanel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[r.Method+" "+r.URL.Path]++
	f.lastAuth.Store(r.Header.Get("Authorization"))

	switch r.URL.Path {
	case "/auth/login":
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		identities := map[string]access.Identity{
			"admin@company.com": adminIdentity,
			"user@company.com":  {ID: "2", Name: "Regular User", Email: "user@company.com", Role: access.RoleUser},
		}
		id, ok := identities[req.Email]
		if !ok || req.Password != "secret" {
			f.writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "Invalid credentials"})
			return
		}
		token := "tok-" + id.Role
		f.tokens[token] = id
		f.writeJSON(w, http.StatusOK, LoginResult{User: id, Token: token})
		return
	case "/auth/logout":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, ok := f.tokens[token]; !ok {
			f.writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "No active session"})
			return
		}
		delete(f.tokens, token)
		f.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
		return
	case "/auth/whoami":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		id, ok := f.tokens[token]
		if !ok {
			f.writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "Unauthenticated"})
			return
		}
		f.writeJSON(w, http.StatusOK, WhoAmI{User: id})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	records, ok := f.collections[parts[0]]
	if !ok {
		f.writeJSON(w, http.StatusNotFound, errorEnvelope{Error: "Not found"})
		return
	}
	id := ""
	if len(parts) > 1 {
		id = parts[1]
	}
	idx := -1
	for i, rec := range records {
		if rec["id"] == id {
			idx = i
		}
	}
	notFound := errorEnvelope{Error: "Record not found"}

	switch r.Method {
	case http.MethodGet:
		if id == "" {
			f.writeJSON(w, http.StatusOK, records)
			return
		}
		if idx < 0 {
			f.writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		f.writeJSON(w, http.StatusOK, records[idx])
	case http.MethodPost:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: err.Error()})
			return
		}
		f.nextID++
		body["id"] = fmt.Sprint(f.nextID)
		f.collections[parts[0]] = append(records, body)
		f.writeJSON(w, http.StatusCreated, body)
	case http.MethodPut:
		if idx < 0 {
			f.writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		var patch map[string]any
		_ = json.NewDecoder(r.Body).Decode(&patch)
		for k, v := range patch {
			if k != "id" {
				records[idx][k] = v
			}
		}
		f.writeJSON(w, http.StatusOK, records[idx])
	case http.MethodDelete:
		if idx < 0 {
			f.writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		removed := records[idx]
		f.collections[parts[0]] = append(records[:idx:idx], records[idx+1:]...)
		f.writeJSON(w, http.StatusOK, removed)
	default:
		f.writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{Error: "Method not allowed"})
	}
}

func newTestClient(t *testing.T, opts ...ClientOption) (*Client, *fakePanel) {
	t.Helper()
	panel := newFakePanel()
	srv := httptest.NewServer(panel)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/", opts...)
	require.NoError(t, err)
	return c, panel
}

func loginAs(t *testing.T, c *Client, email string) {
	t.Helper()
	_, err := c.Login(context.Background(), email, "secret")
	require.NoError(t, err)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestClient_ListIsCachedUntilMutation(t *testing.T) {
	c, panel := newTestClient(t)
	loginAs(t, c, "admin@company.com")
	ctx := context.Background()

	first, err := c.Products().List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := c.Products().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, panel.count(http.MethodGet, "/products"))

	created, err := c.Products().Create(ctx, Product{Title: "Lamp", Price: 9.99, Category: "home"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	third, err := c.Products().List(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 3)
	assert.Equal(t, 2, panel.count(http.MethodGet, "/products"))
}

func TestClient_ListReturnsCopies(t *testing.T) {
	c, _ := newTestClient(t)
	loginAs(t, c, "admin@company.com")
	ctx := context.Background()

	items, err := c.Products().List(ctx)
	require.NoError(t, err)
	items[0].Title = "mutated"

	again, err := c.Products().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Backpack", again[0].Title)
}

func TestClient_UpdateInvalidatesRecordAndList(t *testing.T) {
	c, panel := newTestClient(t)
	loginAs(t, c, "admin@company.com")
	ctx := context.Background()

	u, err := c.Users().Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "user", u.Role)
	_, err = c.Users().List(ctx)
	require.NoError(t, err)

	role := "admin"
	updated, err := c.Users().Update(ctx, "42", UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, User{ID: "42", Name: "A", Email: "a@x.com", Role: "admin"}, updated)

	u, err = c.Users().Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, 2, panel.count(http.MethodGet, "/users/42"))

	list, err := c.Users().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", list[1].Role)
	assert.Equal(t, 2, panel.count(http.MethodGet, "/users"))
}

func TestClient_DeleteThenGone(t *testing.T) {
	c, _ := newTestClient(t)
	loginAs(t, c, "admin@company.com")
	ctx := context.Background()

	_, err := c.Products().Get(ctx, "2")
	require.NoError(t, err)

	removed, err := c.Products().Delete(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Gold Ring", removed.Title)

	_, err = c.Products().Get(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := c.Products().List(ctx)
	require.NoError(t, err)
	for _, p := range list {
		assert.NotEqual(t, "2", p.ID)
	}
}

func TestClient_NotFoundIsNotCached(t *testing.T) {
	c, panel := newTestClient(t)
	loginAs(t, c, "admin@company.com")
	ctx := context.Background()

	for range 2 {
		_, err := c.Users().Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "Record not found", apiErr.Message)
	}
	assert.Equal(t, 2, panel.count(http.MethodGet, "/users/missing"))

	_, err := c.Users().Update(ctx, "missing", UserPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Users().Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_MissingIDIsRejectedLocally(t *testing.T) {
	c, _ := newTestClient(t)
	loginAs(t, c, "admin@company.com")
	ctx := context.Background()

	_, err := c.Users().Get(ctx, "")
	assert.EqualError(t, err, "User ID required")
	_, err = c.Products().Update(ctx, "", ProductPatch{})
	assert.EqualError(t, err, "Product ID required")
	_, err = c.Products().Delete(ctx, "")
	assert.EqualError(t, err, "Product ID required")
}

func TestClient_GateRunsBeforeTransport(t *testing.T) {
	c, panel := newTestClient(t)
	ctx := context.Background()

	_, err := c.Products().List(ctx)
	require.ErrorIs(t, err, ErrUnauthenticated)
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, access.OutcomeLogin, accessErr.Outcome)
	assert.Equal(t, access.ProductsList, accessErr.Capability)

	loginAs(t, c, "user@company.com")

	_, err = c.Products().List(ctx)
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
	}{
		{"create product", func() error { _, err := c.Products().Create(ctx, Product{Title: "x", Price: 1}); return err }},
		{"update product", func() error { _, err := c.Products().Update(ctx, "1", ProductPatch{}); return err }},
		{"delete product", func() error { _, err := c.Products().Delete(ctx, "1"); return err }},
		{"list users", func() error { _, err := c.Users().List(ctx); return err }},
		{"get user", func() error { _, err := c.Users().Get(ctx, "1"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.ErrorIs(t, err, ErrUnauthorized)
			var accessErr *AccessError
			require.ErrorAs(t, err, &accessErr)
			assert.Equal(t, access.OutcomeDefaultView, accessErr.Outcome)
		})
	}

	assert.Zero(t, panel.count(http.MethodPost, "/products"))
	assert.Zero(t, panel.count(http.MethodGet, "/users"))
}

func TestClient_WithoutGateDefersToServer(t *testing.T) {
	c, panel := newTestClient(t, WithoutGate())

	_, err := c.Users().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, panel.count(http.MethodGet, "/users"))
}

func TestClient_SendsBearerToken(t *testing.T) {
	c, panel := newTestClient(t)
	loginAs(t, c, "admin@company.com")

	_, err := c.Users().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-admin", panel.lastAuth.Load())
}

func TestClient_TransportFailureIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, WithoutGate())
	require.NoError(t, err)

	_, err = c.Products().List(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransportFailure(err))
	assert.False(t, IsTransportFailure(&APIError{Status: 500}))

	_, ok := c.Cache().Get(ListKey(TagProducts))
	assert.False(t, ok)
}

func TestClient_LoginPurgesCacheAndPersists(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	session, err := NewSessionManager(ctx, storage, nil)
	require.NoError(t, err)

	c, _ := newTestClient(t, WithSession(session))
	loginAs(t, c, "admin@company.com")

	_, err = c.Users().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Cache().Len())

	loginAs(t, c, "user@company.com")
	assert.Zero(t, c.Cache().Len())

	restored, err := NewSessionManager(ctx, storage, nil)
	require.NoError(t, err)
	assert.Equal(t, access.RoleUser, restored.Identity().Role)
}

func TestClient_LoginFailure(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, "admin@company.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthenticated)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, Anonymous, c.Session().State())

	_, err = c.Login(ctx, " ", "x")
	assert.Error(t, err)
}

func TestClient_LogoutAndWhoAmI(t *testing.T) {
	c, panel := newTestClient(t)
	ctx := context.Background()

	_, err := c.WhoAmI(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.NoError(t, c.Logout(ctx))

	loginAs(t, c, "admin@company.com")
	who, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, adminIdentity, who.User)

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, Anonymous, c.Session().State())
	assert.Equal(t, 1, panel.count(http.MethodPost, "/auth/logout"))
}

func TestClient_LogoutWithRevokedTokenStillClears(t *testing.T) {
	c, panel := newTestClient(t)
	ctx := context.Background()
	loginAs(t, c, "admin@company.com")

	panel.mu.Lock()
	clear(panel.tokens)
	panel.mu.Unlock()

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, Anonymous, c.Session().State())
}

func TestClient_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("admin sees users", func(t *testing.T) {
		c, _ := newTestClient(t)
		loginAs(t, c, "admin@company.com")

		d, err := c.Dashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, &Dashboard{
			Role:       "admin",
			Products:   2,
			Users:      2,
			ShowUsers:  true,
			Categories: []string{"jewelery", "men's clothing"},
		}, d)
	})

	t.Run("user sees products only", func(t *testing.T) {
		c, panel := newTestClient(t)
		loginAs(t, c, "user@company.com")

		d, err := c.Dashboard(ctx)
		require.NoError(t, err)
		assert.False(t, d.ShowUsers)
		assert.Zero(t, d.Users)
		assert.Equal(t, 2, d.Products)
		assert.Zero(t, panel.count(http.MethodGet, "/users"))
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		c, _ := newTestClient(t)
		_, err := c.Dashboard(ctx)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "server returned 404: User not found", (&APIError{Status: 404, Message: "User not found"}).Error())
	assert.Equal(t, "server returned 502 Bad Gateway", (&APIError{Status: 502}).Error())
}
