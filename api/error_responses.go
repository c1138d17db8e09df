package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeSchemaError      ErrorCode = "SCHEMA_ERROR"
	ErrorCodeJobNotFound      ErrorCode = "JOB_NOT_FOUND"
	ErrorCodeEmptyIndex       ErrorCode = "EMPTY_INDEX"
	ErrorCodeNoMatches        ErrorCode = "NO_MATCHES"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"

	// Server Error Codes (5xx)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeLoadFailed    ErrorCode = "LOAD_FAILED"
	ErrorCodeReportFailed  ErrorCode = "REPORT_FAILED"
	ErrorCodeMatchFailed   ErrorCode = "MATCH_FAILED"
)

// APIError represents a standardized API error response
type APIError struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string) {
	c.JSON(statusCode, &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// SendJobNotFoundError sends a standardized job not found error
func SendJobNotFoundError(c *gin.Context, jobID string) {
	SendError(c, http.StatusNotFound, ErrorCodeJobNotFound,
		"Job '"+jobID+"' not found")
}

// SendSchemaError sends a standardized schema error for malformed input
// headers.
func SendSchemaError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeSchemaError, err.Error())
}

// SendEmptyIndexError reports a read operation attempted before any
// successful load.
func SendEmptyIndexError(c *gin.Context) {
	SendError(c, http.StatusConflict, ErrorCodeEmptyIndex,
		"No contract index is loaded; load a contract file first")
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}
