// Package errors holds the domain error taxonomy shared by the ledger, the
// settlement coordinator and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Class tells the boundary whether a failure is the caller's fault or ours.
type Class int

const (
	ClassClient Class = iota
	ClassConflict
	ClassNotFound
	ClassServer
	ClassUpstream
)

// DomainError is a typed failure with a stable code. Two DomainErrors match
// under errors.Is when their codes are equal, so detailed copies created with
// WithMessage still match the package sentinels.
type DomainError struct {
	Code    string
	Message string
	Class   Class
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Class:   e.Class,
	}
}

// AsDomain extracts the first DomainError in err's chain.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrValidation = &DomainError{
		Code:    "VALIDATION_ERROR",
		Message: "invalid request",
		Class:   ClassClient,
	}
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "resource not found",
		Class:   ClassNotFound,
	}
)
