// Package migrations embeds the SQL migration files into the binary so the
// history store can be created without the files present on the device.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.RegisterMigrations(migrationsFS, ".")
}
