package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestOperationError_IsMatchesKindSentinel(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindProcessNotFound, ErrProcessNotFound},
		{KindPermissionDenied, ErrPermissionDenied},
		{KindPartialSuspend, ErrPartialSuspend},
		{KindActuatorUnavailable, ErrActuatorUnavailable},
		{KindMalformedResponse, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewOperationError(tt.kind, "suspend", "game.exe", errors.New("boom")))

			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, expected true", err, tt.sentinel)
			}
			if KindOf(err) != tt.kind {
				t.Errorf("KindOf = %s, expected %s", KindOf(err), tt.kind)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"Nil", nil, KindNone},
		{"Bare sentinel", ErrProcessNotFound, KindProcessNotFound},
		{"Wrapped validation", fmt.Errorf("x: %w", ErrEmptyIdentifier), KindValidation},
		{"Deadline", context.DeadlineExceeded, KindActuatorUnavailable},
		{"Unknown", errors.New("something else"), KindActuatorUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %s, expected %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestOperationError_Message(t *testing.T) {
	err := NewOperationError(KindProcessNotFound, "resume", "ghost", ErrProcessNotFound)
	want := "resume: ProcessNotFound (ghost): process not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, expected %q", err.Error(), want)
	}
}

func TestFailed_AlwaysCarriesMessage(t *testing.T) {
	r := Failed(nil)
	if r.Success {
		t.Fatal("Failed result reports success")
	}
	if r.Message != DefaultFailureMessage {
		t.Errorf("Message = %q, expected %q", r.Message, DefaultFailureMessage)
	}

	r = Failed(NewOperationError(KindPermissionDenied, "suspend", "1", ErrPermissionDenied))
	if r.Kind != KindPermissionDenied {
		t.Errorf("Kind = %s, expected %s", r.Kind, KindPermissionDenied)
	}
}

func TestNormalize_SuccessClearsKind(t *testing.T) {
	r := (&OperationResult{Success: true, Kind: KindPartialSuspend}).Normalize()
	if r.Kind != KindNone {
		t.Errorf("Kind = %s, expected empty", r.Kind)
	}
}
