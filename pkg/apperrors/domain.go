package apperrors

import (
	"net/http"
)

// Factories and predefined values for domain errors.

// ErrNotFound converts a repository miss (e.g. gorm.ErrRecordNotFound) into
// the API-level 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrPrecondition rejects an operation whose hard precondition does not hold,
// before any work starts.
func ErrPrecondition(domain, message string) *AppError {
	return New(CodePreconditionFailed, domain, message, http.StatusUnprocessableEntity)
}

// ErrGenerateBlocked is the "no target country / no target program" rejection
// of the Generate action.
var ErrGenerateBlocked = New(
	CodePreconditionFailed,
	"recommendation",
	"Generation requires at least one target country and one target program",
	http.StatusUnprocessableEntity,
)

// ErrRunNotFound is returned for operations on an unknown run id.
var ErrRunNotFound = New(
	CodeRunNotFound,
	"recommendation",
	"Search run not found",
	http.StatusNotFound,
)

// ErrRunFinished is returned when cancelling a run that already reached a
// terminal state.
var ErrRunFinished = New(
	CodeRunFinished,
	"recommendation",
	"Search run already finished",
	http.StatusConflict,
)

// ErrInsufficientPermissions is used when a non-advisor calls an
// advisor-only operation.
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)
