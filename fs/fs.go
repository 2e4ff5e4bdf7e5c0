package appfs

import "embed"

// FS holds the SQL migrations and the email & page templates.
//
//go:embed migrations all:templates
var FS embed.FS

// MigrationsDir returns the migrations directory of the given database engine.
func MigrationsDir(engine string) string {
	return "migrations/" + engine
}
