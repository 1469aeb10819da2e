package back

import (
	"errors"
	"fmt"

	"kicker/internal/util"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Error kinds the API layer maps to status codes. The string types follow
// the same Is-by-type convention: errors.Is(err, ErrValidation("")) matches
// any validation error regardless of its message.

// ErrValidation is a malformed or impossible input, rejected before any
// write. Safe to retry with a fixed payload.
type ErrValidation string

func (e ErrValidation) Error() string {
	return string(e)
}

func (e ErrValidation) Is(v error) bool {
	_, ok := v.(ErrValidation)
	return ok
}

// ErrNotFound is a reference to a player, team, or match that does not
// exist.
type ErrNotFound string

func (e ErrNotFound) Error() string {
	return string(e)
}

func (e ErrNotFound) Is(v error) bool {
	_, ok := v.(ErrNotFound)
	return ok
}

// ErrConflict is a uniqueness violation: a taken player name, or a team
// pair created concurrently by another request.
type ErrConflict string

func (e ErrConflict) Error() string {
	return string(e)
}

func (e ErrConflict) Is(v error) bool {
	_, ok := v.(ErrConflict)
	return ok
}

// ErrPartialSettlement reports a settlement that may have left a durable
// Match row without all of its rating and ledger writes. It must never be
// retried automatically (a retry would double-apply deltas) and must never
// be reported as a success; the match id is carried for manual
// reconciliation.
type ErrPartialSettlement struct {
	MatchID util.UUIDAsBlob
	Cause   error
}

func (e ErrPartialSettlement) Error() string {
	return fmt.Sprintf("match %s may be partially settled: %s", e.MatchID, e.Cause)
}

func (e ErrPartialSettlement) Unwrap() error {
	return e.Cause
}

func (e ErrPartialSettlement) Is(v error) bool {
	_, ok := v.(ErrPartialSettlement)
	return ok
}

// wrapConstraintErr turns a sqlite uniqueness violation into the given
// conflict so racing writers get the same answer as the check-then-create
// fast path. Any other error passes through untouched.
func wrapConstraintErr(err error, conflict ErrConflict) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return conflict
	}

	return err
}
