package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Infinity2209/user/cmd/panelapi/internal/db/models"
)

var (
	// ErrNotFound is returned when the requested id is absent from its collection.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an explicit id or unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// DocumentStore holds named collections of records keyed by id.
//
// Each call is atomic on its own. Nothing isolates separate calls from each
// other: two concurrent Updates of the same id are applied as independent
// last-write-wins merges.
type DocumentStore interface {
	// FindAll returns a snapshot of the collection in insertion order.
	FindAll(ctx context.Context, collection string) ([]Record, error)
	FindByID(ctx context.Context, collection, id string) (Record, error)
	// Insert assigns a fresh id, ignoring any id in data, and appends the record.
	Insert(ctx context.Context, collection string, data Record) (Record, error)
	// Update shallow-merges patch into the stored record. The id is never changed.
	Update(ctx context.Context, collection, id string, patch Record) (Record, error)
	// Delete removes the record and returns it.
	Delete(ctx context.Context, collection, id string) (Record, error)
	// Import appends records keeping their ids. Records without an id get a fresh one.
	Import(ctx context.Context, collection string, records []Record) error
	Count(ctx context.Context, collection string) (int, error)
}

// AccountRepository exposes persistence operations for login accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
