package errors

import (
	"errors"
	"net/http"
)

// Failure kinds. Every domain error unwraps to exactly one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("not found")
)

var (
	// ErrEmailRequired is returned when signup or login omits the email.
	ErrEmailRequired = New(ErrValidation, "Email is required")
	// ErrPasswordRequired is returned when a password field is missing.
	ErrPasswordRequired = New(ErrValidation, "Password is required")
	// ErrUsernameRequired is returned when signup omits the username.
	ErrUsernameRequired = New(ErrValidation, "Username is required")
	// ErrFirstnameRequired is returned when signup omits the first name.
	ErrFirstnameRequired = New(ErrValidation, "First name is required")
	// ErrInvalidEmail is returned when an email is not of the local@domain shape.
	ErrInvalidEmail = New(ErrValidation, "Invalid email format")
	// ErrTitleRequired is returned when a task title is missing or empty.
	ErrTitleRequired = New(ErrValidation, "Title is required")
	// ErrInvalidStatus is returned for a status outside pending, working, completed.
	ErrInvalidStatus = New(ErrValidation, "Invalid status value")
	// ErrInvalidBody is returned when a request body cannot be decoded.
	ErrInvalidBody = New(ErrValidation, "Invalid request body")
	// ErrNoFieldsToUpdate is returned by partial updates that carry no field.
	ErrNoFieldsToUpdate = New(ErrValidation, "No fields to update")
	// ErrImageRequired is returned when an upload carries no file.
	ErrImageRequired = New(ErrValidation, "Profile image file is required")
	// ErrUnsupportedImage is returned for uploads that are not jpeg, png or gif.
	ErrUnsupportedImage = New(ErrValidation, "Only image files are allowed")
	// ErrImageTooLarge is returned for uploads above the configured limit.
	ErrImageTooLarge = New(ErrValidation, "Image exceeds the maximum upload size")

	// ErrEmailTaken is returned when an email belongs to another user.
	ErrEmailTaken = New(ErrConflict, "Email already exists")

	// ErrBadCredentials is the single message for unknown email and wrong password.
	ErrBadCredentials = New(ErrInvalidCredentials, "Invalid credentials")
	// ErrIncorrectPassword is returned when the current password does not match on change.
	ErrIncorrectPassword = New(ErrInvalidCredentials, "Current password is incorrect")

	// ErrNoToken is returned when a protected request carries no session cookie.
	ErrNoToken = New(ErrUnauthenticated, "No token provided")
	// ErrInvalidToken is returned for tampered, expired or revoked session tokens.
	ErrInvalidToken = New(ErrUnauthenticated, "Invalid or expired token")

	// ErrUserNotFound is returned when the session's user no longer exists.
	ErrUserNotFound = New(ErrNotFound, "User not found")
	// ErrTaskNotFound is returned for tasks that do not exist or belong to someone else.
	ErrTaskNotFound = New(ErrNotFound, "Task not found")
)

// Error is a user-facing failure classified by kind.
type Error struct {
	kind    error
	message string
}

// New creates an error of the given kind with a user-facing message.
func New(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string {
	return e.message
}

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error {
	return e.kind
}

// Kind returns the failure kind.
func (e *Error) Kind() error {
	return e.kind
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unclassified is
// reported as a generic 500 so internals never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	message := "internal server error"
	var domainErr *Error
	if errors.As(err, &domainErr) {
		message = domainErr.Error()
	}

	switch {
	case errors.Is(err, ErrIncorrectPassword):
		return NewHTTPError(http.StatusBadRequest, message, "CURRENT_PASSWORD_INCORRECT")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, message, "VALIDATION_ERROR")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, message, "CONFLICT")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, message, "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, message, "UNAUTHENTICATED")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, message, "NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
