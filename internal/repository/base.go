// Package repository is the GORM data access layer. Lookups return
// models.AppError values so handlers can render them directly.
package repository

import (
	"errors"
	"strings"

	"rwid/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE 23505, unique_violation.
const pgUniqueViolation = "23505"

// isDuplicate reports whether err is a unique-index violation from either
// driver. SQLite only says so in its message.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if pgErr := (*pgconn.PgError)(nil); errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// lookupError turns a failed single-row read into a not-found or internal
// AppError.
func lookupError(err error, resource string, id interface{}) error {
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewInternalError(err)
	}
	return models.NewNotFoundError(resource, id)
}
