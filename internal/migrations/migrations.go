// Package migrations holds the versioned database migrations. Each
// migration file registers itself with the shared collection in init().
package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection the db command applies and rolls back.
var Migrations = migrate.NewMigrations()
