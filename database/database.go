package database

import (
	sq "github.com/Masterminds/squirrel"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// task statuses shared by the worker pool and realtime events
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// builderFor returns a statement builder using the placeholder style of the driver.
func builderFor(driver string) sq.StatementBuilderType {
	if driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return psql
}
