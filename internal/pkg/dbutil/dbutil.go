package dbutil

import (
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Rebind converts MySQL-style `?` placeholders produced by gendry into the
// `$n` placeholders Postgres expects.
func Rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

// IsUnavailable reports whether err indicates the backend connection is
// gone, as opposed to a statement-level failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception. Class 57: operator intervention
		// (server shutdown, crash recovery).
		class := pqErr.Code.Class()
		return class == "08" || class == "57"
	}
	return false
}

// IsVectorDimMismatch reports whether err is pgvector rejecting a vector
// whose dimension does not match the column definition.
func IsVectorDimMismatch(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code.Class() == "22" && strings.Contains(pqErr.Message, "dimensions")
}
