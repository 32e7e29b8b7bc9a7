// Package sdk is the client library for the panel API. It wraps the REST
// endpoints with typed resource calls, a tag-indexed read cache that
// mutations invalidate, and a persisted session that also drives a
// client-side role gate.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Infinity2209/user/pkg/access"
)

// Client talks to a panel API server.
type Client struct {
	baseURL string
	http    *http.Client
	session *SessionManager
	cache   *Cache
	gate    *access.Gate
	log     logrus.FieldLogger

	users    *Resource[User, UserPatch]
	products *Resource[Product, ProductPatch]
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Session    *SessionManager
	Gate       *access.Gate
	NoGate     bool
	CacheSize  int
	Logger     logrus.FieldLogger
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithSession supplies the session manager. Without one the client starts
// Anonymous with an in-memory session.
func WithSession(session *SessionManager) ClientOption {
	return func(opts *ClientOptions) {
		opts.Session = session
	}
}

// WithGate replaces the default role policy checked before each request.
func WithGate(gate *access.Gate) ClientOption {
	return func(opts *ClientOptions) {
		opts.Gate = gate
	}
}

// WithoutGate disables client-side role checks; the server still enforces its own.
func WithoutGate() ClientOption {
	return func(opts *ClientOptions) {
		opts.NoGate = true
	}
}

// WithCacheSize bounds the read cache.
func WithCacheSize(size int) ClientOption {
	return func(opts *ClientOptions) {
		opts.CacheSize = size
	}
}

// WithLogger sets the logger for request tracing at debug level.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(opts *ClientOptions) {
		opts.Logger = log
	}
}

// NewClient creates a client for the API server at baseURL.
func NewClient(baseURL string, optFns ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}

	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Session == nil {
		session, err := NewSessionManager(context.Background(), NewMemoryStorage(), opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Session = session
	}
	if opts.Gate == nil && !opts.NoGate {
		gate, err := access.NewGate(access.DefaultPolicy())
		if err != nil {
			return nil, err
		}
		opts.Gate = gate
	}
	if opts.NoGate {
		opts.Gate = nil
	}

	cache, err := NewCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTPClient,
		session: opts.Session,
		cache:   cache,
		gate:    opts.Gate,
		log:     opts.Logger,
	}
	c.users = newResource[User, UserPatch](c, usersDescriptor)
	c.products = newResource[Product, ProductPatch](c, productsDescriptor)
	return c, nil
}

// Users returns the users collection.
func (c *Client) Users() *Resource[User, UserPatch] { return c.users }

// Products returns the products collection.
func (c *Client) Products() *Resource[Product, ProductPatch] { return c.products }

// Session returns the session manager.
func (c *Client) Session() *SessionManager { return c.session }

// Cache returns the read cache.
func (c *Client) Cache() *Cache { return c.cache }

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// authorize runs the client-side gate for capability against the current session.
func (c *Client) authorize(capability string) error {
	if c.gate == nil {
		return nil
	}
	outcome, err := c.gate.Check(c.session.Identity(), capability)
	if err != nil {
		return err
	}
	if outcome != access.OutcomeAllow {
		return &AccessError{Capability: capability, Outcome: outcome}
	}
	return nil
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes a 2xx JSON response into out.
// Non-2xx responses become *APIError; network and decoding failures become *TransportError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	url := c.baseURL + path

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method, URL: url, Err: fmt.Errorf("read response: %w", err)}
	}

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Message = env.Error
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: method, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
