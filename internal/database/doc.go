// Package database implements the persistence layer backed by PostgreSQL.
//
// One repository per aggregate (users, reports, predictions, feedback), all
// sharing a pgx connection pool. Schema migrations are plain idempotent SQL
// applied at startup.
package database
