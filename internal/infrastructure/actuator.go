package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"quickResume/internal/domain"
	"quickResume/internal/logging"
	"quickResume/internal/repository"
)

var actuatorLog = logging.L("actuator")

// Action is the state transition an actuator applies
type Action string

const (
	ActionSuspend Action = "suspend"
	ActionResume  Action = "resume"
)

// errPartialThreads marks a process left with some threads changed and others not
var errPartialThreads = errors.New("not all threads changed state")

// processOps applies a transition to one process. Probe must check the
// caller's rights without side effects.
type processOps interface {
	Probe(ctx context.Context, pid int) error
	Suspend(ctx context.Context, pid int) error
	Resume(ctx context.Context, pid int) error
}

// PIDOutcome records what happened to one matched process
type PIDOutcome struct {
	PID     int    `json:"pid"`
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

const (
	outcomeChanged = "changed"
	outcomeNoop    = "unchanged"
	outcomeDenied  = "denied"
	outcomeGone    = "exited"
	outcomePartial = "partial"
	outcomeFailed  = "failed"
)

// NativeController suspends and resumes processes with OS primitives. Every
// process matching the identifier is acted upon.
type NativeController struct {
	provider repository.SnapshotProvider
	ops      processOps
	timeout  time.Duration
	selfPID  int
}

// NewNativeController creates a controller for the current platform
func NewNativeController(provider repository.SnapshotProvider, timeout time.Duration) *NativeController {
	return newNativeController(provider, newPlatformOps(), timeout)
}

func newNativeController(provider repository.SnapshotProvider, ops processOps, timeout time.Duration) *NativeController {
	return &NativeController{
		provider: provider,
		ops:      ops,
		timeout:  timeout,
		selfPID:  os.Getpid(),
	}
}

// NativeBackend pairs the snapshot provider with the controller acting on its snapshots
type NativeBackend struct {
	*ProcessSnapshotProvider
	*NativeController
}

// NewNativeBackend creates the default OS binding
func NewNativeBackend(snapshotTimeout time.Duration, workers int, actuatorTimeout time.Duration) *NativeBackend {
	provider := NewProcessSnapshotProvider(snapshotTimeout, workers)
	return &NativeBackend{
		ProcessSnapshotProvider: provider,
		NativeController:        NewNativeController(provider, actuatorTimeout),
	}
}

// Suspend stops every thread of every process matching id
func (c *NativeController) Suspend(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error) {
	return c.apply(ctx, ActionSuspend, id)
}

// Resume restarts every thread of every process matching id
func (c *NativeController) Resume(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error) {
	return c.apply(ctx, ActionResume, id)
}

func (c *NativeController) apply(ctx context.Context, action Action, id domain.Identifier) (*domain.OperationResult, error) {
	op := string(action)

	if id.Name == "" && id.PID <= 0 {
		return nil, domain.NewOperationError(domain.KindValidation, op, id.Raw, domain.ErrEmptyIdentifier)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	snapshot, err := c.provider.ListProcesses(ctx)
	if err != nil {
		return nil, domain.NewOperationError(domain.KindActuatorUnavailable, op, id.Raw, err)
	}

	var matches []domain.ProcessRecord
	for _, p := range snapshot {
		if p.PID == c.selfPID {
			continue
		}
		if id.Matches(p) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return nil, domain.NewOperationError(domain.KindProcessNotFound, op, id.Raw, domain.ErrProcessNotFound)
	}

	// Rights are checked on every match before the first one is changed.
	outcomes := make([]PIDOutcome, len(matches))
	accessible := make([]bool, len(matches))
	for i, p := range matches {
		outcomes[i], accessible[i] = c.probe(ctx, p)
	}

	for i, p := range matches {
		if accessible[i] {
			outcomes[i] = c.applyOne(ctx, action, p)
		}
	}

	return summarize(op, id, outcomes)
}

func (c *NativeController) probe(ctx context.Context, p domain.ProcessRecord) (PIDOutcome, bool) {
	out := PIDOutcome{PID: p.PID, Name: p.Name}

	if err := ctx.Err(); err != nil {
		out.Outcome, out.Error = outcomeFailed, err.Error()
		return out, false
	}
	if err := c.ops.Probe(ctx, p.PID); err != nil {
		out.Outcome, out.Error = classifyOpError(err), err.Error()
		actuatorLog.Info("process not accessible", logging.KeyPID, p.PID, logging.KeyError, err)
		return out, false
	}
	return out, true
}

func (c *NativeController) applyOne(ctx context.Context, action Action, p domain.ProcessRecord) PIDOutcome {
	out := PIDOutcome{PID: p.PID, Name: p.Name}
	log := actuatorLog.With(logging.KeyPID, p.PID, "action", string(action))

	if (action == ActionSuspend && p.IsSuspended) || (action == ActionResume && !p.IsSuspended) {
		out.Outcome = outcomeNoop
		log.Debug("already in requested state")
		return out
	}

	if err := ctx.Err(); err != nil {
		out.Outcome, out.Error = outcomeFailed, err.Error()
		return out
	}

	var err error
	if action == ActionSuspend {
		err = c.ops.Suspend(ctx, p.PID)
	} else {
		err = c.ops.Resume(ctx, p.PID)
	}
	if err != nil {
		out.Outcome, out.Error = classifyOpError(err), err.Error()
		log.Warn("state change failed", logging.KeyError, err)
		return out
	}

	out.Outcome = outcomeChanged
	log.Info("state changed", "name", p.Name)
	return out
}

func classifyOpError(err error) string {
	switch {
	case errors.Is(err, errPartialThreads):
		return outcomePartial
	case isDenied(err), errors.Is(err, domain.ErrPermissionDenied):
		return outcomeDenied
	case isGone(err), errors.Is(err, domain.ErrProcessNotFound):
		return outcomeGone
	default:
		return outcomeFailed
	}
}

// summarize folds per-process outcomes into one result. Matches that exited
// before they could be acted on do not count against an otherwise applied
// operation; any other mix of applied and unapplied matches is partial.
func summarize(op string, id domain.Identifier, outcomes []PIDOutcome) (*domain.OperationResult, error) {
	counts := make(map[string]int)
	for _, o := range outcomes {
		counts[o.Outcome]++
	}

	done := counts[outcomeChanged] + counts[outcomeNoop]
	total := len(outcomes)

	switch {
	case done == total:
		msg := fmt.Sprintf("%s applied to %d process(es) matching %q", op, total, id.Raw)
		if counts[outcomeChanged] == 0 {
			msg = fmt.Sprintf("%d process(es) matching %q already in requested state", total, id.Raw)
		}
		return domain.Succeeded(msg, outcomes), nil

	case counts[outcomeGone] == total:
		return nil, domain.NewOperationError(domain.KindProcessNotFound, op, id.Raw, domain.ErrProcessNotFound)

	case done > 0 && done+counts[outcomeGone] == total:
		msg := fmt.Sprintf("%s applied to %d process(es) matching %q, %d exited", op, done, id.Raw, counts[outcomeGone])
		return domain.Succeeded(msg, outcomes), nil

	case counts[outcomeDenied]+counts[outcomeGone] == total && counts[outcomeDenied] > 0:
		return nil, domain.NewOperationError(domain.KindPermissionDenied, op, id.Raw,
			fmt.Errorf("%w: %s", domain.ErrPermissionDenied, describe(outcomes)))

	case done > 0 || counts[outcomePartial] > 0:
		return nil, domain.NewOperationError(domain.KindPartialSuspend, op, id.Raw,
			fmt.Errorf("%w: %s", domain.ErrPartialSuspend, describe(outcomes)))

	default:
		return nil, domain.NewOperationError(domain.KindActuatorUnavailable, op, id.Raw,
			fmt.Errorf("%w: %s", domain.ErrActuatorUnavailable, describe(outcomes)))
	}
}

func describe(outcomes []PIDOutcome) string {
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		s := fmt.Sprintf("pid %d %s", o.PID, o.Outcome)
		if o.Error != "" {
			s += " (" + o.Error + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
