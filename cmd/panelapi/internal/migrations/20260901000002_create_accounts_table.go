package migrations

import (
	"context"
	"fmt"

	"github.com/Infinity2209/user/cmd/panelapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260901000002, down_20260901000002)
}

// up_20260901000002 creates the accounts table used by /auth/login
func up_20260901000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating accounts table...")

	_, err := db.NewCreateTable().
		Model((*models.Account)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260901000002 drops the accounts table
func down_20260901000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping accounts table...")

	_, err := db.NewDropTable().
		Model((*models.Account)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop accounts table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
