package account

import "embed"

// Migrations holds the goose migrations for the Postgres backend, rooted at
// MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
