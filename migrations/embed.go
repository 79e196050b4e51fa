// Package migrations holds the MySQL schema applied by `pos-auth migrate`.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
