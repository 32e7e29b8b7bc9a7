package migrations

import (
	"context"
	"fmt"

	"github.com/Infinity2209/user/cmd/panelapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260901000001, down_20260901000001)
}

// up_20260901000001 creates the documents table backing every resource collection
func up_20260901000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating documents table...")

	_, err := db.NewCreateTable().
		Model((*models.Document)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_documents_collection_seq ON documents(collection, seq)
	`)
	if err != nil {
		return fmt.Errorf("failed to create documents seq index: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260901000001 drops the documents table
func down_20260901000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping documents table...")

	_, err := db.NewDropTable().
		Model((*models.Document)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop documents table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
