// Package seed loads the default development dataset into empty collections.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/cmd/panelapi/internal/db/bunx"
	"github.com/Infinity2209/user/cmd/panelapi/internal/db/models"
	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/sirupsen/logrus"
)

//go:embed seed.json
var defaultData []byte

// Account is a login account in plain text form, hashed on load.
type Account struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Dataset is the document content of a seed file.
type Dataset struct {
	Users    []repository.Record `json:"users"`
	Products []repository.Record `json:"products"`
	Accounts []Account           `json:"accounts"`
}

// Collections maps collection names to their seed records.
func (d *Dataset) Collections() map[string][]repository.Record {
	return map[string][]repository.Record{
		"users":    d.Users,
		"products": d.Products,
	}
}

// Result reports what Apply wrote.
type Result struct {
	Imported map[string]int
	Skipped  []string
	Accounts int
}

// Default returns the embedded dataset.
func Default() (*Dataset, error) {
	return Parse(defaultData)
}

// Parse decodes a dataset.
func Parse(raw []byte) (*Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode seed dataset: %w", err)
	}
	return &d, nil
}

// Apply imports each collection only when it is empty, and creates accounts
// whose email is not registered yet.
func Apply(ctx context.Context, d *Dataset, store repository.DocumentStore, accounts repository.AccountRepository, log logrus.FieldLogger) (Result, error) {
	res := Result{Imported: make(map[string]int)}

	for name, records := range d.Collections() {
		n, err := store.Count(ctx, name)
		if err != nil {
			return res, err
		}
		if n > 0 {
			log.WithField("collection", name).Debug("collection not empty, skipping seed")
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if err := store.Import(ctx, name, records); err != nil {
			return res, fmt.Errorf("seed %s: %w", name, err)
		}
		res.Imported[name] = len(records)
		log.WithFields(logrus.Fields{"collection": name, "count": len(records)}).Info("seeded collection")
	}

	if accounts == nil {
		return res, nil
	}
	for _, a := range d.Accounts {
		created, err := ensureAccount(ctx, accounts, a)
		if err != nil {
			return res, err
		}
		if created {
			res.Accounts++
			log.WithFields(logrus.Fields{"email": a.Email, "role": a.Role}).Info("seeded account")
		}
	}
	return res, nil
}

func ensureAccount(ctx context.Context, repo repository.AccountRepository, a Account) (bool, error) {
	_, err := repo.GetByEmail(ctx, a.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("check account %s: %w", a.Email, err)
	}

	hash, err := auth.HashPassword(a.Password)
	if err != nil {
		return false, err
	}
	err = repo.Create(ctx, &models.Account{
		ID:           bunx.NewUUIDv7(),
		Email:        a.Email,
		Name:         a.Name,
		Role:         a.Role,
		PasswordHash: hash,
	})
	if err != nil {
		return false, fmt.Errorf("seed account %s: %w", a.Email, err)
	}
	return true, nil
}
