package errors

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

var exposeDetails atomic.Bool

// ExposeDetails controls whether 5xx responses carry the underlying error text.
// Enabled outside production or when APP_DEBUG is set.
func ExposeDetails(enabled bool) {
	exposeDetails.Store(enabled)
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// Shorthands for the common statuses

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

// Unprocessable is used for domain rule violations such as deleting a tag still in use.
func Unprocessable(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, errorCode, message)
}

func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "Too many requests, slow down"
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   RateLimitExceeded,
		Message: message,
	})
}

// InternalError answers 500. The error text is attached only when details are exposed.
func InternalError(c *gin.Context, message string, err error) {
	respondServerError(c, http.StatusInternalServerError, InternalServerError, message, err)
}

// Unavailable answers 503 for transient failures of the data store or cache.
func Unavailable(c *gin.Context, message string, err error) {
	respondServerError(c, http.StatusServiceUnavailable, InternalUnavailable, message, err)
}

func respondServerError(c *gin.Context, status int, code, message string, err error) {
	if message == "" {
		message = "Something went wrong, please try again later"
	}
	resp := ErrorResponse{Error: code, Message: message}
	if err != nil {
		_ = c.Error(err)
		if exposeDetails.Load() {
			resp.Detail = err.Error()
		}
	}
	c.JSON(status, resp)
}

// ValidationError carries per-field messages for binding failures.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "The given data was invalid",
		Fields:  fields,
	})
}
