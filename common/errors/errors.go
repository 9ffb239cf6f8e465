package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrTypeInternal     ErrorType = "INTERNAL"
	ErrTypeUnavailable  ErrorType = "UNAVAILABLE"

	// Pipeline taxonomy. Ingestion, transform and resolution errors are
	// recovered per row; load errors abort the run; fetch errors skip a source.
	ErrTypeIngestion      ErrorType = "INGESTION"
	ErrTypeTransform      ErrorType = "TRANSFORM"
	ErrTypeResolutionMiss ErrorType = "RESOLUTION_MISS"
	ErrTypeLoad           ErrorType = "LOAD"
	ErrTypeFetch          ErrorType = "FETCH"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

// Is matches any DomainError of the same type, so callers can test
// errors.Is(err, &DomainError{Type: ErrTypeLoad}).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// TypeOf returns the type of the outermost DomainError in the chain, or "".
func TypeOf(err error) ErrorType {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ""
}

func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	for err != nil {
		if !stderrors.As(err, &de) {
			return false
		}
		if de.Type == errType {
			return true
		}
		err = de.Err
	}
	return false
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}

func Ingestion(message string, err error) *DomainError {
	return New(ErrTypeIngestion, message, err)
}

func Transform(message string, err error) *DomainError {
	return New(ErrTypeTransform, message, err)
}

func ResolutionMiss(message string, err error) *DomainError {
	return New(ErrTypeResolutionMiss, message, err)
}

func Load(message string, err error) *DomainError {
	return New(ErrTypeLoad, message, err)
}

func Fetch(message string, err error) *DomainError {
	return New(ErrTypeFetch, message, err)
}
