// Package errors holds the error taxonomy shared by the console and the
// companies endpoint.
package errors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrDuplicateDocument = fmt.Errorf("duplicate document")
	ErrInvalidInput      = fmt.Errorf("invalid input")
)

// TransportError means the request never reached the endpoint or its
// response could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError means the endpoint was reached but rejected the request.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match a 404 against ErrNotFound and a 409, the endpoint's
// answer to a second company with the same document, against
// ErrDuplicateDocument.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrDuplicateDocument:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// ValidationError is a client-side rejection of a payload before any call is
// made. Problems maps a field name to its messages.
type ValidationError struct {
	Problems map[string][]string
}

// NewValidationError builds a ValidationError with a single problem.
func NewValidationError(field, problem string) *ValidationError {
	v := &ValidationError{Problems: map[string][]string{}}
	v.Add(field, problem)
	return v
}

func (e *ValidationError) Add(field, problem string) {
	if e.Problems == nil {
		e.Problems = map[string][]string{}
	}
	e.Problems[field] = append(e.Problems[field], problem)
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Problems))
	for f := range e.Problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, strings.Join(e.Problems[f], ", "))
	}
	return fmt.Sprintf("%v: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
