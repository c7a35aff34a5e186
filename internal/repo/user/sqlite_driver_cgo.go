//go:build sqlite_cgo

package user

// CGO SQLite driver. Build with:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

const sqliteDriverName = "sqlite3"

// sqliteDSN applies the busy timeout to every pooled connection and makes
// transactions take the write lock on BEGIN.
func sqliteDSN(path string) string {
	return path + "?_busy_timeout=5000&_txlock=immediate"
}

func isSQLiteUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}

	switch liteErr.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return true
	default:
		return false
	}
}
