package cmdutil

import (
	"fmt"

	"github.com/uptrace/bun"

	"github.com/Infinity2209/user/cmd/panelapi/internal/config"
	"github.com/Infinity2209/user/cmd/panelapi/internal/db/bunx"
	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
)

// StoreBundle bundles the document store and account repository with the
// database connection backing them. DB is nil for the in-memory store.
type StoreBundle struct {
	Store    repository.DocumentStore
	Accounts repository.AccountRepository
	DB       *bun.DB
}

// Close releases the underlying database connection.
func (b *StoreBundle) Close() {
	if b == nil || b.DB == nil {
		return
	}
	bunx.Close(b.DB)
}

// Durable reports whether the bundle is backed by a database.
func (b *StoreBundle) Durable() bool {
	return b != nil && b.DB != nil
}

// NewStoreBundle selects the in-memory or bun-backed repositories from cfg.DatabaseURL.
func NewStoreBundle(cfg *config.Config) (*StoreBundle, error) {
	if cfg.IsMemory() {
		return &StoreBundle{
			Store:    repository.NewMemoryDocumentStore(),
			Accounts: repository.NewMemoryAccountRepository(),
		}, nil
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	return &StoreBundle{
		Store:    repository.NewBunDocumentStore(db),
		Accounts: repository.NewBunAccountRepository(db),
		DB:       db,
	}, nil
}

// OpenDB connects to the configured database. The in-memory store has no
// database and is rejected.
func OpenDB(cfg *config.Config) (*bun.DB, error) {
	if cfg.IsMemory() {
		return nil, fmt.Errorf("database_url is 'memory': set a postgres URL or sqlite path for this command")
	}
	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
