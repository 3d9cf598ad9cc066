//go:build !windows

package infrastructure

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// signalOps stops and continues processes with SIGSTOP/SIGCONT. The kernel
// applies both to all threads at once, so a process is never left half stopped.
type signalOps struct{}

func newPlatformOps() processOps {
	return signalOps{}
}

// Probe sends signal 0, which checks existence and permission only.
func (signalOps) Probe(_ context.Context, pid int) error {
	if err := unix.Kill(pid, 0); err != nil {
		return fmt.Errorf("probe PID %d: %w", pid, err)
	}
	return nil
}

func (signalOps) Suspend(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return err
	}
	if err := p.SuspendWithContext(ctx); err != nil {
		return fmt.Errorf("SIGSTOP PID %d: %w", pid, err)
	}
	return nil
}

func (signalOps) Resume(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return err
	}
	if err := p.ResumeWithContext(ctx); err != nil {
		return fmt.Errorf("SIGCONT PID %d: %w", pid, err)
	}
	return nil
}
