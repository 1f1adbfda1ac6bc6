package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when a concurrent status change wins the race
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInvalidPaymentAmount is used when a legacy paid amount falls
	// outside the half-open range [0, total)
	ErrCodeInvalidPaymentAmount = "ERR_INVALID_PAYMENT_AMOUNT"
	// ErrCodeScheduleEmpty is used when schedule generation yields no installments
	ErrCodeScheduleEmpty = "ERR_SCHEDULE_EMPTY"
	// ErrCodeRegenerationOverPaid is used when regenerating a schedule would
	// discard recorded payments without explicit confirmation
	ErrCodeRegenerationOverPaid = "ERR_REGENERATION_OVER_PAID"
	// ErrCodeInvalidSchedule is used when a schedule violates its structural rules
	ErrCodeInvalidSchedule = "ERR_INVALID_SCHEDULE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidAmount is used when a monetary amount is not positive
	ErrCodeInvalidAmount = "ERR_INVALID_AMOUNT"
	// ErrCodeInvalidInterval is used when a schedule interval is unsupported
	ErrCodeInvalidInterval = "ERR_INVALID_INTERVAL"
	// ErrCodeInvalidSplitMode is used when a schedule split mode is unsupported
	ErrCodeInvalidSplitMode = "ERR_INVALID_SPLIT_MODE"
	// ErrCodeInvalidIssueDate is used when a note issue date is missing or zero
	ErrCodeInvalidIssueDate = "ERR_INVALID_ISSUE_DATE"
	// ErrCodeInvalidContentType is used when an attachment content type is not allowed
	ErrCodeInvalidContentType = "ERR_INVALID_CONTENT_TYPE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeInvalidPaymentAmount: http.StatusUnprocessableEntity,
	ErrCodeScheduleEmpty:        http.StatusUnprocessableEntity,
	ErrCodeRegenerationOverPaid: http.StatusUnprocessableEntity,
	ErrCodeInvalidSchedule:      http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeInvalidAmount:      http.StatusBadRequest,
	ErrCodeInvalidInterval:    http.StatusBadRequest,
	ErrCodeInvalidSplitMode:   http.StatusBadRequest,
	ErrCodeInvalidIssueDate:   http.StatusBadRequest,
	ErrCodeInvalidContentType: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps bare domain error codes to the standardized
// ERR_* codes used on the wire
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"INVALID_PAYMENT_AMOUNT": ErrCodeInvalidPaymentAmount,
	"SCHEDULE_EMPTY":         ErrCodeScheduleEmpty,
	"REGENERATION_OVER_PAID": ErrCodeRegenerationOverPaid,
	"INVALID_SCHEDULE":       ErrCodeInvalidSchedule,
	"INVALID_AMOUNT":         ErrCodeInvalidAmount,
	"INVALID_INTERVAL":       ErrCodeInvalidInterval,
	"INVALID_SPLIT_MODE":     ErrCodeInvalidSplitMode,
	"INVALID_ISSUE_DATE":     ErrCodeInvalidIssueDate,
	"INVALID_CONTENT_TYPE":   ErrCodeInvalidContentType,
	"INVALID_CUSTOMER":       ErrCodeInvalidInput,
	"INVALID_CUSTOMER_NAME":  ErrCodeValidation,
	"INVALID_REASON":         ErrCodeValidation,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a bare domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
