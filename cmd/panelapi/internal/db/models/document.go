package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Document is one record of a named collection. The record itself lives in
// Body as a JSON object; Seq preserves insertion order within a collection.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	Collection string    `bun:"collection,pk"`
	ID         string    `bun:"id,pk"`
	Seq        int64     `bun:"seq,notnull"`
	Body       Body      `bun:"body,type:jsonb,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Body is a JSON object column.
type Body map[string]any

// Scan implements sql.Scanner for reading from database
func (b *Body) Scan(value any) error {
	if value == nil {
		*b = make(Body)
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Body: expected []byte or string, got %T", value)
	}
	out := make(Body)
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode Body: %w", err)
	}
	*b = out
	return nil
}

// Value implements driver.Valuer for writing to database
func (b Body) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	bytes, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}
