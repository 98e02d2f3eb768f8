// Package migrations holds the goose SQL migrations for the storefront schema.
package migrations

import "embed"

// FS exposes the migration files to goose.
//
//go:embed *.sql
var FS embed.FS
