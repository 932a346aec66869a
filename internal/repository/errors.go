// Package repository provides the gorm-backed collections of the remote store.
package repository

import (
	"errors"

	"linesen/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint failure from
// either the translated gorm error or a raw PostgreSQL error.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// remoteError maps driver errors onto the application taxonomy.
func remoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AppError{Code: models.CodeNotFound, Message: op + ": not found", Err: err}
	}
	return models.NewRemoteUnavailableError(op, err)
}
