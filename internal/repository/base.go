// Package repository provides the GORM data access layer.
package repository

import (
	"errors"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrDuplicate is returned when a unique index rejects an insert or update.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNoRowsAffected is returned when a delete matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrHasReplies blocks deleting a comment that still has children.
	ErrHasReplies = errors.New("comment has replies")
	// ErrHasComments blocks deleting a post that still has comments.
	ErrHasComments = errors.New("post has comments")
)

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND AppError and wraps
// anything else as internal.
func notFoundOr(err error, resource string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// IsNotFound reports whether err is a NOT_FOUND AppError.
func IsNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a lower-cased substring pattern for a `LIKE ? ESCAPE '\'`
// predicate, so % and _ in s match literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
