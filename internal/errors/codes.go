package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map on the code, not the message.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Locales (LOCALE_) ====================
	LocaleNotFound         = "LOCALE_NOT_FOUND"
	LocaleCodeExists       = "LOCALE_CODE_EXISTS"
	LocaleInUse            = "LOCALE_IN_USE"
	LocaleDefaultProtected = "LOCALE_DEFAULT_PROTECTED"

	// ==================== Translations (TRANSLATION_) ====================
	TranslationNotFound   = "TRANSLATION_NOT_FOUND"
	TranslationKeyExists  = "TRANSLATION_KEY_EXISTS"
	TranslationBulkFailed = "TRANSLATION_BULK_FAILED"

	// ==================== Tags (TAG_) ====================
	TagNotFound = "TAG_NOT_FOUND"
	TagExists   = "TAG_EXISTS"
	TagInUse    = "TAG_IN_USE"

	// ==================== Export (EXPORT_) ====================
	ExportFailed = "EXPORT_FAILED"

	// ==================== Rate limiting (RATE_) ====================
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalCacheError    = "INTERNAL_CACHE_ERROR"
	InternalUnavailable   = "INTERNAL_UNAVAILABLE"
)
