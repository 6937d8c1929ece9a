package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema migrations, one per file named <version>_<name>.go.
var Migrations = migrate.NewMigrations()
