package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by store methods. Handlers translate these into
// the HTTP error taxonomy; a record owned by another organization surfaces as
// ErrNotFound, indistinguishable from a record that does not exist.
var (
	// ErrNotFound means the record is absent or belongs to another organization.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a uniqueness constraint was violated (e.g. email).
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidReference means a foreign reference points outside the
	// caller's organization or at a missing record.
	ErrInvalidReference = errors.New("referenced record not found in organization")
)

// mapError converts low-level pgx errors into store sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrDuplicate
		case pgerrcode.ForeignKeyViolation:
			return ErrInvalidReference
		}
	}
	return err
}
