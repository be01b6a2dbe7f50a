// Package errors provides structured error types with fix suggestions for
// playauth. These error types wrap transport, protocol and storage failures
// from the authentication flow and provide actionable guidance on how to
// resolve common misconfigurations.
package errors

// AuthError provides additional context for error handling.
// It wraps underlying errors with error codes and actionable suggestions.
type AuthError interface {
	error
	Unwrap() error              // Original error
	Code() string               // Error code (e.g., "TRANSPORT_SOCKET_FAILED")
	Suggestion() string         // Actionable fix suggestion
	Context() map[string]string // Additional context (game id, url, etc.)
}

// Configuration error codes
const (
	ErrCodeConfigMissingGameID = "CONFIG_MISSING_GAME_ID"
	ErrCodeConfigGameNotFound  = "CONFIG_GAME_NOT_FOUND"
)

// Registration error codes
const (
	ErrCodeGameNotRegistered = "GAME_NOT_REGISTERED"
	ErrCodeRegistrationCheck = "REGISTRATION_CHECK_FAILED"
)

// Protocol error codes
const (
	ErrCodeProtocolMalformed = "PROTOCOL_MALFORMED_MESSAGE"
)

// Transport error codes
const (
	ErrCodeTransportSocketFailed       = "TRANSPORT_SOCKET_FAILED"
	ErrCodeTransportOverlayUnavailable = "TRANSPORT_OVERLAY_UNAVAILABLE"
	ErrCodeTransportMountMissing       = "TRANSPORT_MOUNT_MISSING"
	ErrCodeTransportConnectionIDEmpty  = "TRANSPORT_CONNECTION_ID_MISSING"
)

// Storage error codes
const (
	ErrCodeStorageReadFailed  = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed = "STORAGE_WRITE_FAILED"
)

// authError implements the AuthError interface.
type authError struct {
	code       string
	message    string
	suggestion string
	context    map[string]string
	cause      error
}

// Error implements the error interface.
func (e *authError) Error() string {
	return e.message
}

// Unwrap returns the underlying cause error.
func (e *authError) Unwrap() error {
	return e.cause
}

// Code returns the error code.
func (e *authError) Code() string {
	return e.code
}

// Suggestion returns the actionable fix suggestion.
func (e *authError) Suggestion() string {
	return e.suggestion
}

// Context returns additional context about the error.
func (e *authError) Context() map[string]string {
	return e.context
}

// New creates a new AuthError with the given code, message, suggestion, and cause.
func New(code, message, suggestion string, cause error) AuthError {
	return &authError{
		code:       code,
		message:    message,
		suggestion: suggestion,
		context:    make(map[string]string),
		cause:      cause,
	}
}

// WithContext adds context to an error and returns a new AuthError.
// The original error is not modified.
func WithContext(err AuthError, key, value string) AuthError {
	existingCtx := err.Context()
	newCtx := make(map[string]string, len(existingCtx)+1)
	for k, v := range existingCtx {
		newCtx[k] = v
	}
	newCtx[key] = value

	return &authError{
		code:       err.Code(),
		message:    err.Error(),
		suggestion: err.Suggestion(),
		context:    newCtx,
		cause:      err.Unwrap(),
	}
}

// IsAuthError checks if err is an AuthError and returns it.
// If err is nil or not an AuthError, returns (nil, false).
func IsAuthError(err error) (AuthError, bool) {
	if err == nil {
		return nil, false
	}
	if ae, ok := err.(AuthError); ok {
		return ae, true
	}
	return nil, false
}

// GetCode extracts the error code from an error.
// Returns empty string if err is not an AuthError.
func GetCode(err error) string {
	if ae, ok := IsAuthError(err); ok {
		return ae.Code()
	}
	return ""
}
