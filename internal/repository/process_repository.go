package repository

import (
	"context"
	"time"

	"quickResume/internal/domain"
)

// SnapshotProvider lists the processes visible to the current user.
// Implementations return either a complete snapshot or an error, never a
// partial list, and must not alter process state.
type SnapshotProvider interface {
	ListProcesses(ctx context.Context) ([]domain.ProcessRecord, error)
}

// ProcessController suspends and resumes every process matched by an identifier.
// Separated from query operations (Interface Segregation Principle)
type ProcessController interface {
	Suspend(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error)
	Resume(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error)
}

// Backend bundles both halves of an OS binding
type Backend interface {
	SnapshotProvider
	ProcessController
}

// Classifier decides whether a process looks like a game. Answers are
// heuristic and may be wrong.
type Classifier interface {
	IsGame(ctx context.Context, p domain.ProcessRecord) bool
}

// ClassificationCache stores classifier verdicts by cleaned process name
type ClassificationCache interface {
	Get(key string) (value bool, ok bool)
	Set(key string, value bool) error
}

// Clock abstracts time for the reconciliation loop and status board
type Clock interface {
	Now() time.Time
}
