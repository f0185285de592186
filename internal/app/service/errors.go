package service

import (
	"errors"
	"fmt"
)

var (
	ErrLocaleNotFound      = errors.New("locale not found")
	ErrLocaleCodeExists    = errors.New("locale code already exists")
	ErrLocaleInUse         = errors.New("locale has translations")
	ErrLocaleIsDefault     = errors.New("default locale cannot be deleted")
	ErrTranslationNotFound = errors.New("translation not found")
	ErrDuplicateKey        = errors.New("translation key already exists for this locale")
	ErrTagNotFound         = errors.New("tag not found")
	ErrTagExists           = errors.New("tag name or slug already exists")
	ErrTagInUse            = errors.New("tag is attached to translations")
	ErrInvalidBulkAction   = errors.New("invalid bulk action")
)

// TransientStoreError wraps a data store or cache failure. It is safe to retry
// and is reported as a 5xx.
type TransientStoreError struct {
	Op    string
	Cause error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Cause
}

func transient(op string, err error) error {
	return &TransientStoreError{Op: op, Cause: err}
}

// IsTransient reports whether err carries a TransientStoreError.
func IsTransient(err error) bool {
	var target *TransientStoreError
	return errors.As(err, &target)
}
