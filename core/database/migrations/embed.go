// Package migrations embeds the SQL schema so goose can apply it at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
