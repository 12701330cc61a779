// Package migrations embeds goose SQL migrations for the client's local
// SQLite replica.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
