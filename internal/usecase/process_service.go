package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quickResume/internal/domain"
	"quickResume/internal/logging"
	"quickResume/internal/repository"
)

var serviceLog = logging.L("service")

// ProcessService is the command façade. Every operation returns a result and
// never an error.
type ProcessService interface {
	GetAllProcesses(ctx context.Context) *domain.OperationResult
	SuspendProcess(ctx context.Context, identifier string) *domain.OperationResult
	ResumeProcess(ctx context.Context, identifier string) *domain.OperationResult
	View(ctx context.Context, filter domain.Filter) ProcessView
	Status() (StatusMessage, bool)
	Reconciler() *Reconciler
}

// ServiceConfig configures the façade and the loop it owns
type ServiceConfig struct {
	Interval  time.Duration
	Cooldown  time.Duration
	StatusTTL time.Duration
	Clock     repository.Clock
}

// processService implements ProcessService
// Dependency Inversion Principle - depends on interfaces, not concrete implementations
type processService struct {
	backend    repository.Backend
	reconciler *Reconciler
	views      *ViewBuilder
	board      *StatusBoard

	// actuator calls hold the write side, snapshot fetches the read side
	mu sync.RWMutex
}

// NewProcessService creates the façade together with its reconciliation loop.
// A nil classifier disables the games-only filter.
func NewProcessService(backend repository.Backend, classifier repository.Classifier, cfg ServiceConfig) ProcessService {
	s := &processService{
		backend: backend,
		views:   NewViewBuilder(classifier),
		board:   NewStatusBoard(cfg.StatusTTL, cfg.Clock),
	}
	s.reconciler = NewReconciler(backend, ReconcilerConfig{
		Interval:  cfg.Interval,
		Cooldown:  cfg.Cooldown,
		Clock:     cfg.Clock,
		FetchLock: s.mu.RLocker(),
	})
	return s
}

func (s *processService) Reconciler() *Reconciler {
	return s.reconciler
}

func (s *processService) Status() (StatusMessage, bool) {
	return s.board.Current()
}

// GetAllProcesses takes a fresh snapshot outside the loop
func (s *processService) GetAllProcesses(ctx context.Context) *domain.OperationResult {
	s.mu.RLock()
	records, err := s.backend.ListProcesses(ctx)
	s.mu.RUnlock()

	if err != nil {
		serviceLog.Warn("failed to get processes", logging.KeyError, err)
		result := domain.Failed(err)
		result.Message = "Failed to get processes: " + failureDetail(err)
		s.board.Error(result.Message)
		return result
	}

	if records == nil {
		records = []domain.ProcessRecord{}
	}
	return domain.Succeeded(fmt.Sprintf("%d processes", len(records)), records)
}

// SuspendProcess suspends every process matching identifier
func (s *processService) SuspendProcess(ctx context.Context, identifier string) *domain.OperationResult {
	return s.execute(ctx, identifier, "suspend", "suspended", s.backend.Suspend)
}

// ResumeProcess resumes every process matching identifier
func (s *processService) ResumeProcess(ctx context.Context, identifier string) *domain.OperationResult {
	return s.execute(ctx, identifier, "resume", "resumed", s.backend.Resume)
}

type actuatorCall func(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error)

func (s *processService) execute(ctx context.Context, raw, verb, pastTense string, call actuatorCall) *domain.OperationResult {
	log := logging.WithOperation(serviceLog, uuid.NewString(), raw).With("action", verb)

	id, err := domain.ParseIdentifier(raw)
	if err != nil {
		log.Info("rejected identifier", logging.KeyError, err)
		result := domain.Failed(err)
		result.Message = failureDetail(err)
		s.board.Error(result.Message)
		return result
	}

	start := time.Now()
	s.mu.Lock()
	result, err := call(ctx, id)
	s.mu.Unlock()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		log.Warn("operation failed", logging.KeyError, err, logging.KeyDurationMs, elapsed)
		failed := domain.Failed(err)
		failed.Message = fmt.Sprintf("Failed to %s process: %s", verb, failureDetail(err))
		s.board.Error(failed.Message)
		return failed
	}
	if result == nil {
		result = domain.Succeeded("", nil)
	}
	result.Normalize()

	if !result.Success {
		if result.Kind == domain.KindNone {
			result.Kind = domain.KindActuatorUnavailable
		}
		log.Warn("operation reported failure", "message", result.Message, logging.KeyDurationMs, elapsed)
		result.Message = fmt.Sprintf("Failed to %s process: %s", verb, result.Message)
		s.board.Error(result.Message)
		return result
	}

	if result.Message == "" {
		result.Message = fmt.Sprintf("Process %q %s", id.Raw, pastTense)
	}
	log.Info("operation succeeded", "message", result.Message, logging.KeyDurationMs, elapsed)
	s.board.Success(fmt.Sprintf("Process %q %s successfully", id.Raw, pastTense))

	s.reconciler.ForceRefresh(ctx)
	return result
}

// View returns the published snapshot filtered and split for display,
// fetching one first if nothing has been published yet.
func (s *processService) View(ctx context.Context, filter domain.Filter) ProcessView {
	records, version := s.reconciler.Snapshot()
	if version == 0 {
		s.reconciler.ForceRefresh(ctx)
		records, version = s.reconciler.Snapshot()
	}
	return s.views.Build(ctx, records, version, filter)
}

// failureDetail returns the innermost useful message of err
func failureDetail(err error) string {
	var opErr *domain.OperationError
	if errors.As(err, &opErr) && opErr.Err != nil {
		err = opErr.Err
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
