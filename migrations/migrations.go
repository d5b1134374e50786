// Package migrations embeds the SQL schema applied by "medassist-server
// migrate up" when the row-store driver is postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
