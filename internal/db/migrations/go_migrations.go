// Package migrations holds Go migrations whose DDL differs per database.
package migrations

// dialect is set by the db package before goose runs.
var dialect string

// SetDialect selects the DDL flavour: "sqlite3", "postgres" or "mysql".
func SetDialect(d string) {
	dialect = d
}
