package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Account is a login principal for the admin panel. Accounts are separate from
// the "users" collection, which is data managed through the panel.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID           string     `bun:"id,pk"`
	Email        string     `bun:"email,notnull,unique"`
	Name         string     `bun:"name,notnull"`
	Role         string     `bun:"role,notnull"`
	PasswordHash string     `bun:"password_hash,notnull"` // bcrypt
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
}
