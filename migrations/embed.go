// Package migrations embeds the SmartWaste schema migrations into the
// binary and registers them with the database package.
package migrations

import (
	"embed"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.Migrations = files
}
