package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes this package reacts to. Duplicates become domain
// conflicts, foreign-key violations mark rows that are still
// referenced.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgErrorCode extracts the SQLSTATE from a driver error, or "" when
// the error did not come from the server at all.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isPgDuplicateError(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isPgForeignKeyError(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

func isPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
