//go:build !sqlite_cgo

package user

// Pure Go SQLite driver, no C toolchain required. This is the default build.

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteDriverName = "sqlite"

// sqliteDSN applies the busy timeout to every pooled connection and makes
// transactions take the write lock on BEGIN.
func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_txlock=immediate"
}

func isSQLiteUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}
