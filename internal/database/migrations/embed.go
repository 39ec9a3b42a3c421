package migrations

import "embed"

// FS contains the schema migrations shared by the MySQL and SQLite backends.
//
//go:embed *.sql
var FS embed.FS
