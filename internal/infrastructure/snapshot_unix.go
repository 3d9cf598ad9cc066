//go:build !windows

package infrastructure

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// Unix has no system-wide window list to consult; stopped state is read per
// process.
func collectHints(ctx context.Context) (*processHints, error) {
	return &processHints{}, nil
}

// isSuspended reports a job-control stop (SIGSTOP/SIGTSTP). The kernel stops
// every thread of the process together.
func isSuspended(ctx context.Context, proc *process.Process, _ *processHints) (bool, error) {
	states, err := proc.StatusWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range states {
		if s == process.Stop {
			return true, nil
		}
	}
	return false, nil
}
