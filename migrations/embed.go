// Package migrations embeds the SQL schema migrations applied at startup by
// infra.RunMigrations (golang-migrate, iofs source).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
