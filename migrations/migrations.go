// Package migrations embeds the SQL schema migrations so the server and the
// admin CLI can apply them regardless of working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
