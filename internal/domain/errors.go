package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProcessNotFound     = errors.New("process not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrPartialSuspend      = errors.New("operation applied to only some threads or processes")
	ErrActuatorUnavailable = errors.New("actuator unavailable")
	ErrMalformedResponse   = errors.New("malformed actuator response")
	ErrEmptyIdentifier     = errors.New("process name is required")
	ErrInvalidPID          = errors.New("invalid process ID")
	ErrInvalidProcessName  = errors.New("invalid process name")
)

// ErrorKind classifies failures crossing the façade boundary
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindProcessNotFound     ErrorKind = "ProcessNotFound"
	KindPermissionDenied    ErrorKind = "PermissionDenied"
	KindPartialSuspend      ErrorKind = "PartialSuspend"
	KindActuatorUnavailable ErrorKind = "ActuatorUnavailable"
	KindMalformedResponse   ErrorKind = "MalformedResponse"
	KindValidation          ErrorKind = "ValidationError"
)

var kindSentinels = map[ErrorKind]error{
	KindProcessNotFound:     ErrProcessNotFound,
	KindPermissionDenied:    ErrPermissionDenied,
	KindPartialSuspend:      ErrPartialSuspend,
	KindActuatorUnavailable: ErrActuatorUnavailable,
	KindMalformedResponse:   ErrMalformedResponse,
}

// OperationError is the typed error returned by snapshot providers and actuators
type OperationError struct {
	Kind       ErrorKind
	Op         string
	Identifier string
	Err        error
}

// NewOperationError creates a typed error
func NewOperationError(kind ErrorKind, op, identifier string, err error) *OperationError {
	return &OperationError{Kind: kind, Op: op, Identifier: identifier, Err: err}
}

func (e *OperationError) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Identifier != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Identifier)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is matches the kind's sentinel so errors.Is(err, ErrProcessNotFound) holds
// for every OperationError of kind ProcessNotFound.
func (e *OperationError) Is(target error) bool {
	if s, ok := kindSentinels[e.Kind]; ok && s == target {
		return true
	}
	return false
}

// KindOf maps any error to a kind. Unclassified errors are treated as the
// actuator being unavailable.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}

	switch {
	case errors.Is(err, ErrProcessNotFound):
		return KindProcessNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrPartialSuspend):
		return KindPartialSuspend
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrEmptyIdentifier), errors.Is(err, ErrInvalidPID), errors.Is(err, ErrInvalidProcessName):
		return KindValidation
	case errors.Is(err, context.DeadlineExceeded):
		return KindActuatorUnavailable
	}

	return KindActuatorUnavailable
}
