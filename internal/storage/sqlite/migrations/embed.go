package migrations

import "embed"

// FS contains embedded SQLite migrations for wave history.
//
//go:embed *.sql
var FS embed.FS
