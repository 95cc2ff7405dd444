// Package migrations embeds the SQL schema so cmd/migrate can apply it
// without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
