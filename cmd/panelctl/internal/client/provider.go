package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Infinity2209/user/cmd/panelctl/internal/auth"
	"github.com/Infinity2209/user/pkg/sdk"
)

// Options configures a Provider.
type Options struct {
	ServerURL  string
	SessionDir string
	// RedisURL selects a shared Redis session store instead of the session directory.
	RedisURL string
	Logger   logrus.FieldLogger
	Timeout  time.Duration
}

// Provider lazily builds the session-backed SDK client shared by every command.
type Provider struct {
	opts Options

	once      sync.Once
	sdkClient *sdk.Client
	closeFn   func() error
	err       error
}

// NewProvider constructs a new Provider. Nothing is opened until SDKClient is called.
func NewProvider(opts Options) *Provider {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Provider{opts: opts}
}

// ServerURL returns the server the provider talks to.
func (p *Provider) ServerURL() string { return p.opts.ServerURL }

// SDKClient returns the shared client, restoring the persisted session on first use.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	p.once.Do(func() {
		storage, closeFn, err := p.storage(ctx)
		if err != nil {
			p.err = err
			return
		}
		p.closeFn = closeFn

		session, err := sdk.NewSessionManager(ctx, storage, p.opts.Logger)
		if err != nil {
			p.err = fmt.Errorf("restore session: %w", err)
			return
		}

		p.sdkClient, p.err = sdk.NewClient(p.opts.ServerURL,
			sdk.WithSession(session),
			sdk.WithLogger(p.opts.Logger),
			sdk.WithHTTPClient(&http.Client{Timeout: p.opts.Timeout}),
		)
	})
	return p.sdkClient, p.err
}

// Close logs client cache activity at debug level and releases the session
// store connection, if any.
func (p *Provider) Close() error {
	if p.sdkClient != nil && p.opts.Logger != nil {
		stats := p.sdkClient.Cache().Stats()
		p.opts.Logger.WithFields(logrus.Fields{
			"hits":    stats.Hits,
			"misses":  stats.Misses,
			"fetches": stats.Fetches,
		}).Debug("client cache")
	}
	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}

func (p *Provider) storage(ctx context.Context) (sdk.Storage, func() error, error) {
	if p.opts.RedisURL != "" {
		s, err := sdk.NewRedisStorage(ctx, p.opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}

	s, err := auth.NewFileStore(p.opts.SessionDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session store: %w", err)
	}
	return s, nil, nil
}
