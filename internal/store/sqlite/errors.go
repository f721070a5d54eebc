package sqlite

import (
	"errors"
	"strings"

	"github.com/steveyegge/graphengine/internal/store"
)

// isUniqueViolation reports whether err came from a PRIMARY KEY or UNIQUE
// constraint failure. The pure-Go driver surfaces these as plain errors
// carrying the sqlite3 message text rather than a typed code, so matching
// on the message is the teacher's own idiom for this driver family.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// wrapWriteError turns a raw driver error from an insert into a
// store.ErrConflict-wrapping error when it was a uniqueness violation, or
// passes it through otherwise.
func wrapWriteError(err error, context string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return errors.Join(store.ErrConflict, err)
	}
	return err
}
