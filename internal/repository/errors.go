package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrReferenceNotFound is returned when a row points at a missing category, brand or user
var ErrReferenceNotFound = errors.New("referenced record does not exist")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}
