package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sync/errgroup"

	"quickResume/internal/domain"
	"quickResume/internal/logging"
)

var snapshotLog = logging.L("snapshot")

// ProcessSnapshotProvider enumerates processes through gopsutil and the
// platform's own thread-state and window queries.
type ProcessSnapshotProvider struct {
	timeout time.Duration
	workers int
}

// NewProcessSnapshotProvider creates a provider bounded by timeout and using
// up to workers goroutines to inspect processes.
func NewProcessSnapshotProvider(timeout time.Duration, workers int) *ProcessSnapshotProvider {
	if workers < 1 {
		workers = 1
	}
	return &ProcessSnapshotProvider{timeout: timeout, workers: workers}
}

// ListProcesses returns a complete, PID-ordered snapshot or an error.
func (p *ProcessSnapshotProvider) ListProcesses(ctx context.Context) ([]domain.ProcessRecord, error) {
	start := time.Now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, domain.NewOperationError(domain.KindActuatorUnavailable, "list", "", fmt.Errorf("failed to enumerate processes: %w", err))
	}

	hints, err := collectHints(ctx)
	if err != nil {
		return nil, domain.NewOperationError(domain.KindActuatorUnavailable, "list", "", err)
	}

	records := make([]domain.ProcessRecord, len(procs))
	keep := make([]bool, len(procs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, proc := range procs {
		i, proc := i, proc
		g.Go(func() error {
			rec, ok, err := inspectProcess(gctx, proc, hints)
			if err != nil {
				return err
			}
			records[i], keep[i] = rec, ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, domain.NewOperationError(domain.KindActuatorUnavailable, "list", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewOperationError(domain.KindActuatorUnavailable, "list", "", fmt.Errorf("snapshot incomplete: %w", err))
	}

	out := make([]domain.ProcessRecord, 0, len(records))
	for i, rec := range records {
		if keep[i] {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })

	snapshotLog.Debug("snapshot collected", "count", len(out), logging.KeyDurationMs, time.Since(start).Milliseconds())

	return out, nil
}

func inspectProcess(ctx context.Context, proc *process.Process, hints *processHints) (domain.ProcessRecord, bool, error) {
	name, err := proc.NameWithContext(ctx)
	if err != nil {
		if isGone(err) || isDenied(err) {
			return domain.ProcessRecord{}, false, nil
		}
		return domain.ProcessRecord{}, false, fmt.Errorf("failed to read name of PID %d: %w", proc.Pid, err)
	}
	if name == "" {
		return domain.ProcessRecord{}, false, nil
	}

	suspended, err := isSuspended(ctx, proc, hints)
	if err != nil {
		if isGone(err) || isDenied(err) {
			return domain.ProcessRecord{}, false, nil
		}
		return domain.ProcessRecord{}, false, fmt.Errorf("failed to read state of PID %d: %w", proc.Pid, err)
	}

	return domain.ProcessRecord{
		Name:        name,
		PID:         int(proc.Pid),
		WindowTitle: hints.title(proc.Pid),
		IsSuspended: suspended,
	}, true, nil
}

// isGone reports errors caused by a process exiting mid-inspection
func isGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, os.ErrProcessDone)
}

func isDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

// processHints carries facts gathered once per snapshot by a system-wide query
type processHints struct {
	suspended map[int32]bool
	titles    map[int32]string
}

func (h *processHints) title(pid int32) string {
	if h == nil || h.titles == nil {
		return ""
	}
	return h.titles[pid]
}
