package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to the UI.
const (
	// Generation flow
	CodeConfiguration        = "CONFIGURATION_ERROR"
	CodeGeneration           = "GENERATION_ERROR"
	CodeGenerationInProgress = "GENERATION_IN_PROGRESS"
	CodeParse                = "PARSE_ERROR"

	// Storage
	CodePersistence = "PERSISTENCE_ERROR"

	// Input
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
)

// QuestError is the error type shared by every layer of the quest service.
type QuestError struct {
	Code    string
	Message string
	Err     error
}

func (e *QuestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *QuestError) Unwrap() error {
	return e.Err
}

// New creates a QuestError.
func New(code, message string, err error) *QuestError {
	return &QuestError{Code: code, Message: message, Err: err}
}

// ErrConfiguration reports a missing or unusable credential or setting.
func ErrConfiguration(reason string) *QuestError {
	return &QuestError{
		Code:    CodeConfiguration,
		Message: reason,
	}
}

// ErrGeneration wraps a failed or unusable call to the quest generator.
func ErrGeneration(message string, err error) *QuestError {
	return &QuestError{
		Code:    CodeGeneration,
		Message: message,
		Err:     err,
	}
}

// ErrGenerationInProgress is returned while another generation request is outstanding.
func ErrGenerationInProgress() *QuestError {
	return &QuestError{
		Code:    CodeGenerationInProgress,
		Message: "a quest generation request is already in progress",
	}
}

// ErrParse reports generator output that matched no known quest format.
func ErrParse(reason string, err error) *QuestError {
	return &QuestError{
		Code:    CodeParse,
		Message: reason,
		Err:     err,
	}
}

// ErrPersistence wraps a storage read or write failure.
func ErrPersistence(operation string, err error) *QuestError {
	return &QuestError{
		Code:    CodePersistence,
		Message: fmt.Sprintf("storage error during %s", operation),
		Err:     err,
	}
}

// ErrInvalidArgument returns a validation error for a single field.
func ErrInvalidArgument(field, reason string) *QuestError {
	return &QuestError{
		Code:    CodeInvalidArgument,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
	}
}

// ErrNotFound returns an error for a missing resource.
func ErrNotFound(resource, id string) *QuestError {
	return &QuestError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// CodeOf returns the code of the first QuestError in err's chain, or "" if there is none.
func CodeOf(err error) string {
	var qe *QuestError
	if stderrors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// IsPersistence reports whether err is a storage failure. Callers treat these as
// warnings: the in-memory state has already been updated.
func IsPersistence(err error) bool {
	return Is(err, CodePersistence)
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var qe *QuestError
	if stderrors.As(err, &qe) {
		return qe.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConfiguration:
		return http.StatusPreconditionFailed
	case CodeGenerationInProgress:
		return http.StatusConflict
	case CodeGeneration, CodeParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
