package auth

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// RevocationList remembers revoked token ids until the token would have expired anyway.
type RevocationList struct {
	entries *gocache.Cache
	now     func() time.Time
}

// NewRevocationList creates an empty list; expired entries are purged every cleanup interval.
func NewRevocationList(cleanup time.Duration) *RevocationList {
	return &RevocationList{
		entries: gocache.New(gocache.NoExpiration, cleanup),
		now:     time.Now,
	}
}

// Revoke adds jti to the list. A zero exp keeps the entry until restart.
func (l *RevocationList) Revoke(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	ttl := gocache.NoExpiration
	if !exp.IsZero() {
		ttl = exp.Sub(l.now())
		if ttl <= 0 {
			return
		}
	}
	l.entries.Set(jti, struct{}{}, ttl)
}

// IsRevoked reports whether jti is on the list.
func (l *RevocationList) IsRevoked(jti string) bool {
	_, found := l.entries.Get(jti)
	return found
}

// Len returns the number of live entries.
func (l *RevocationList) Len() int {
	return l.entries.ItemCount()
}
