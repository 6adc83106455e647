package apperr

import (
	"fmt"
	"net/http"
)

// Error is a domain error raised deep in the call stack (repo lookups, token
// validation) and mapped to an HTTP status plus response envelope once, at the
// echo error-handler boundary.
type Error struct {
	Name    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(format string, args ...any) *Error {
	return &Error{
		Name:    "NotFoundError",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func Unauthorized() *Error {
	return &Error{
		Name:    "UnauthorizedError",
		Status:  http.StatusUnauthorized,
		Message: "Unauthorized action.",
	}
}

func InvalidToken() *Error {
	return &Error{
		Name:    "InvalidTokenError",
		Status:  http.StatusUnauthorized,
		Message: "Invalid token.",
	}
}

func TokenExpired() *Error {
	return &Error{
		Name:    "TokenExpiredError",
		Status:  http.StatusUnauthorized,
		Message: "Token has expired.",
	}
}

func InvalidCredentials() *Error {
	return &Error{
		Name:    "InvalidCredentialsError",
		Status:  http.StatusBadRequest,
		Message: "Invalid credentials.",
	}
}

func Duplicate(format string, args ...any) *Error {
	return &Error{
		Name:    "DuplicateError",
		Status:  http.StatusConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{
		Name:    "ValidationError",
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf(format, args...),
	}
}
