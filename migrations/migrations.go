package migrations

import "embed"

// FS embeds the SQL migrations for every supported storage driver. Each
// driver reads its own subdirectory through the golang-migrate iofs source.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
