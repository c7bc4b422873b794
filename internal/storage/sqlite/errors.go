package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andreisalomia/mini-jira/internal/storage"
)

// wrapDBError wraps a database error with operation context.
// It converts sql.ErrNoRows to storage.ErrNotFound for consistent error handling.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapDBErrorf wraps a database error with formatted operation context.
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return wrapDBError(fmt.Sprintf(format, args...), err)
}

// isBusyError reports whether err is a transient lock-contention error.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}
