package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorInfo is a client-safe description of a storage error.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps driver errors from postgres, mysql and sqlite onto stable codes.
// resource names the entity being touched ("locale", "translation", "tag").
func ParseError(err error, resource string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(resource)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || IsDuplicateKey(err) {
		return parseDuplicateKeyError(err.Error(), resource)
	}

	lower := strings.ToLower(err.Error())

	// postgres 23503, mysql 1451/1452, sqlite "FOREIGN KEY constraint failed"
	if strings.Contains(lower, "foreign key constraint") {
		return ErrorInfo{Code: ResourceConflict, Message: fmt.Sprintf("The %s is still referenced by other records", resourceOr(resource))}
	}

	if strings.Contains(lower, "violates not-null constraint") || strings.Contains(lower, "not null constraint failed") || strings.Contains(lower, "cannot be null") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	if strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "i/o timeout") {
		return ErrorInfo{Code: InternalUnavailable, Message: "A backing service is unavailable, please retry"}
	}

	return ErrorInfo{Code: InternalDatabaseError, Message: "Something went wrong, please try again later"}
}

// IsDuplicateKey recognises unique violations across the supported drivers.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate entry")
}

func parseDuplicateKeyError(errStr string, resource string) ErrorInfo {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "locales") || strings.Contains(lower, "idx_locales_code"):
		return ErrorInfo{Code: LocaleCodeExists, Message: "The locale code has already been taken"}
	case strings.Contains(lower, "idx_translations_key_locale") || strings.Contains(lower, "translations.key"):
		return ErrorInfo{Code: TranslationKeyExists, Message: "The key already exists for this locale"}
	case strings.Contains(lower, "translation_tags"):
		return ErrorInfo{Code: TagExists, Message: "The tag name or slug has already been taken"}
	}

	return ErrorInfo{Code: ResourceAlreadyExists, Message: fmt.Sprintf("The %s already exists", resourceOr(resource))}
}

func notFoundMessage(resource string) string {
	return fmt.Sprintf("The requested %s was not found", resourceOr(resource))
}

func resourceOr(resource string) string {
	if resource == "" {
		return "record"
	}
	return resource
}

// ValidationFields flattens binding errors into field -> rule messages.
// Returns nil when err did not come from the validator.
func ValidationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "is required"
		case "min", "max", "len":
			fields[name] = fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
		case "oneof":
			fields[name] = fmt.Sprintf("must be one of [%s]", fe.Param())
		default:
			fields[name] = fmt.Sprintf("failed on %s", fe.Tag())
		}
	}
	return fields
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
