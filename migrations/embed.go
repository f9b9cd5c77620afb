// Package migrations holds the goose-format SQL schema of the scheduling
// database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
