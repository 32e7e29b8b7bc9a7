package bunx

import "github.com/google/uuid"

// NewUUIDv7 generates a time-ordered UUIDv7 string used as a record id.
//
// Ids sort by creation time and stay unique under rapid concurrent creates,
// which a millisecond timestamp alone does not. Panics only if the entropy
// source fails.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
