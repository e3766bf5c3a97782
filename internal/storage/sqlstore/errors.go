package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/steveyegge/redline/internal/storage"
)

// dbErr labels err with the operation that produced it and maps driver
// errors onto the storage sentinels: no rows becomes ErrNotFound and a
// unique key violation becomes ErrConflict. A nil err stays nil.
func (s *Store) dbErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	op := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	case s.dialect.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", op, storage.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectRow reports ErrNotFound when an UPDATE or DELETE touched no row.
func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	switch {
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	case n == 0:
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}
