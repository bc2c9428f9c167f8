package migrations

import "embed"

// MigrationsFS holds the goose SQL migrations
//
//go:embed *.sql
var MigrationsFS embed.FS
