// Package migrations embeds the SQL schema of the watch definition store.
package migrations

import "embed"

// FS holds the golang-migrate source files.
//
//go:embed *.sql
var FS embed.FS
