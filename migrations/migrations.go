// Package migrations embeds the SQL schema for the PostgreSQL and MySQL credential stores.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per driver.
//
//go:embed postgresql/*.sql mysql/*.sql
var FS embed.FS

// Dir returns the embedded directory for driver ("postgres" or "mysql").
func Dir(driver string) string {
	if driver == "mysql" {
		return "mysql"
	}
	return "postgresql"
}
