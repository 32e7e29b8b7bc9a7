package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set of schema changes applied by "panelapi db migrate".
var Migrations = migrate.NewMigrations()
