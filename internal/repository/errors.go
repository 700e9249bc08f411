package repository

import "errors"

// Sentinel errors the HTTP layer translates into response statuses.
// Backend-specific driver errors never escape this package.
var (
	// ErrNotFound: no record matches the requested identifier.
	ErrNotFound = errors.New("record not found")

	// ErrConflict: a uniqueness or foreign key constraint rejected the
	// write. The two cases are deliberately indistinguishable.
	ErrConflict = errors.New("constraint violation")

	// ErrSyntax: the database rejected a value's syntax, e.g. a
	// malformed UUID reaching a uuid column.
	ErrSyntax = errors.New("invalid value syntax")
)
