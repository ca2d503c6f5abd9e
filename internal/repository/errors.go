package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// translateGormError maps GORM sentinel errors onto the repository errors.
func translateGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

// validUUID reports whether id can be a primary key of the relational store.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
