package helpers

import (
	"errors"
	"fmt"

	"market-loader/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PipelineError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// FetchError is a transport failure or a non-2xx answer from the quote API.
type FetchError struct {
	PipelineError
	StatusCode int
}

// MalformedResponseError is a 2xx answer whose payload does not have the expected shape.
type MalformedResponseError struct{ PipelineError }

// RecordParseError aborts a whole transform batch.
type RecordParseError struct {
	PipelineError
	Index int
	Date  string
	Field string
	Value string
}

type DdlError struct {
	PipelineError
	Statement string
}

type LoadError struct{ PipelineError }
type ValidationError struct{ PipelineError }
type ConfigurationError struct{ PipelineError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewFetchError(statusCode int, message string, cause error) *FetchError {
	return &FetchError{PipelineError: PipelineError{Stage: "fetch", Message: message, Cause: cause}, StatusCode: statusCode}
}

func NewMalformedResponseError(message string, cause error) *MalformedResponseError {
	return &MalformedResponseError{PipelineError{Stage: "fetch", Message: message, Cause: cause}}
}

func NewRecordParseError(index int, date, field, value string, cause error) *RecordParseError {
	return &RecordParseError{
		PipelineError: PipelineError{
			Stage:   "transform",
			Message: fmt.Sprintf("record %d (%s): invalid %s %q", index, date, field, value),
			Cause:   cause,
		},
		Index: index,
		Date:  date,
		Field: field,
		Value: value,
	}
}

func NewDdlError(statement string, cause error) *DdlError {
	return &DdlError{PipelineError: PipelineError{Stage: "init", Message: "ddl failed: " + statement, Cause: cause}, Statement: statement}
}

func NewLoadError(message string, cause error) *LoadError {
	return &LoadError{PipelineError{Stage: "load", Message: message, Cause: cause}}
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{PipelineError{Stage: "validate", Message: message, Cause: cause}}
}

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{PipelineError{Message: message}}
}

// Kind names the error class for reports. Unknown errors are "error".
func Kind(err error) string {
	var (
		fetchErr      *FetchError
		malformedErr  *MalformedResponseError
		parseErr      *RecordParseError
		ddlErr        *DdlError
		loadErr       *LoadError
		validationErr *ValidationError
		configErr     *ConfigurationError
	)
	switch {
	case errors.As(err, &fetchErr):
		return "FetchError"
	case errors.As(err, &malformedErr):
		return "MalformedResponseError"
	case errors.As(err, &parseErr):
		return "RecordParseError"
	case errors.As(err, &ddlErr):
		return "DdlError"
	case errors.As(err, &loadErr):
		return "LoadError"
	case errors.As(err, &validationErr):
		return "ValidationError"
	case errors.As(err, &configErr):
		return "ConfigurationError"
	}
	return "error"
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs errors where they are detected. It never swallows them.
type ErrorHandler struct {
	Logger     *logger.Logger
	ErrorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger("ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

// Handle logs err and hands it back so callers can `return h.Handle(err, "...")`.
func (e *ErrorHandler) Handle(err error, context string) error {
	if err != nil {
		e.ErrorCount++
		e.Logger.Error("Error in %s [%s]: %v", context, Kind(err), err)
	}
	return err
}
