package seed

import (
	"context"
	"io"
	"testing"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDefault(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, d.Users)
	assert.NotEmpty(t, d.Products)
	require.Len(t, d.Accounts, 2)

	for _, r := range append(append([]repository.Record{}, d.Users...), d.Products...) {
		assert.NotEmpty(t, r.ID())
	}
}

func TestApply(t *testing.T) {
	auth.PasswordCost = bcrypt.MinCost

	d, err := Default()
	require.NoError(t, err)

	ctx := context.Background()
	store := repository.NewMemoryDocumentStore()
	accounts := repository.NewMemoryAccountRepository()

	res, err := Apply(ctx, d, store, accounts, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, len(d.Users), res.Imported["users"])
	assert.Equal(t, len(d.Products), res.Imported["products"])
	assert.Equal(t, 2, res.Accounts)

	admin, err := accounts.GetByEmail(ctx, "admin@company.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)
	assert.NoError(t, auth.VerifyPassword(admin.PasswordHash, "admin123"))

	t.Run("second run is a no-op", func(t *testing.T) {
		res, err := Apply(ctx, d, store, accounts, quietLogger())
		require.NoError(t, err)
		assert.Empty(t, res.Imported)
		assert.ElementsMatch(t, []string{"users", "products"}, res.Skipped)
		assert.Zero(t, res.Accounts)

		n, err := store.Count(ctx, "products")
		require.NoError(t, err)
		assert.Equal(t, len(d.Products), n)
	})
}

func TestApply_WithoutAccounts(t *testing.T) {
	d, err := Parse([]byte(`{"users":[{"id":"42","name":"A","email":"a@x.com","role":"user"}]}`))
	require.NoError(t, err)

	store := repository.NewMemoryDocumentStore()
	res, err := Apply(context.Background(), d, store, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported["users"])

	got, err := store.FindByID(context.Background(), "users", "42")
	require.NoError(t, err)
	assert.Equal(t, "A", got["name"])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"users":`))
	assert.Error(t, err)
}
