package apperrors

// ErrorCode identifies one error class across the API.
type ErrorCode string

const (
	// System and unknown errors
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Generic business-logic codes (used by the factories)
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInvalidOperation   ErrorCode = "INVALID_OPERATION"
	CodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"

	// Recommendation pipeline
	CodeRunNotFound  ErrorCode = "RUN_NOT_FOUND"
	CodeRunFinished  ErrorCode = "RUN_FINISHED"
	CodeRunCancelled ErrorCode = "RUN_CANCELLED"

	// Authentication and authorization
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)
