package outbox

import "embed"

// SchemaFS holds the goose migrations for the default outbox table.
//
//go:embed schema/*.sql
var SchemaFS embed.FS
