package service

import (
	"vibez/internal/models"
	"vibez/internal/repository"
)

// notFoundAs converts a missing-row error from the store into a NOT_FOUND
// AppError for resource; other errors pass through unchanged.
func notFoundAs(err error, resource string, id interface{}) error {
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}

// conflictAs converts a constraint violation into a CONSTRAINT_CONFLICT
// AppError carrying message; other errors pass through unchanged.
func conflictAs(err error, message string) error {
	if repository.IsConstraintViolation(err) {
		return models.NewConstraintConflictError(message, err)
	}
	return err
}
