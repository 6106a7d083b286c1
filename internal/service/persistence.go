package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// constraintMarkers are driver messages for unique/check/range violations on
// PostgreSQL and SQLite
var constraintMarkers = []string{
	"duplicate key value",
	"unique constraint failed",
	"violates unique constraint",
	"violates check constraint",
	"check constraint failed",
	"violates not-null constraint",
	"not null constraint failed",
	"numeric field overflow",
	"value out of range",
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range constraintMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// asValidationError converts constraint violations raised inside a
// transaction into the validation error shape. Other errors pass through.
func asValidationError(err error, context string) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if isConstraintViolation(err) {
		return NewValidationError(context + ": " + err.Error())
	}
	return err
}
