//go:build windows

package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"quickResume/internal/domain"
)

var (
	modkernel32       = windows.NewLazySystemDLL("kernel32.dll")
	procSuspendThread = modkernel32.NewProc("SuspendThread")
	procResumeThread  = modkernel32.NewProc("ResumeThread")
)

// SuspendThread/ResumeThread return (DWORD)-1 on failure
const threadCallFailed = ^uint32(0)

// maxResumeRounds bounds the loop draining a thread's suspend count
const maxResumeRounds = 128

// threadOps walks a process's threads with a Toolhelp snapshot and changes
// each one individually.
type threadOps struct{}

func newPlatformOps() processOps {
	enableDebugPrivilegeOnce()
	return threadOps{}
}

// Probe opens every thread with suspend/resume rights and closes them again.
// No thread state is touched.
func (threadOps) Probe(_ context.Context, pid int) error {
	handles, err := openThreads(uint32(pid))
	closeAll(handles)
	return err
}

func (threadOps) Suspend(ctx context.Context, pid int) error {
	handles, err := openThreads(uint32(pid))
	if err != nil {
		closeAll(handles)
		return err
	}
	defer closeAll(handles)

	changed := 0
	for _, h := range handles {
		if ctx.Err() != nil {
			return partialOrErr(changed, ctx.Err())
		}
		ret, _, callErr := procSuspendThread.Call(uintptr(h))
		if uint32(ret) == threadCallFailed {
			return partialOrErr(changed, fmt.Errorf("SuspendThread in PID %d: %w", pid, callErr))
		}
		changed++
	}
	return nil
}

func (threadOps) Resume(ctx context.Context, pid int) error {
	handles, err := openThreads(uint32(pid))
	if err != nil {
		closeAll(handles)
		return err
	}
	defer closeAll(handles)

	changed := 0
	for _, h := range handles {
		if ctx.Err() != nil {
			return partialOrErr(changed, ctx.Err())
		}
		// ResumeThread returns the previous suspend count; keep going until
		// the thread is runnable.
		for round := 0; ; round++ {
			ret, _, callErr := procResumeThread.Call(uintptr(h))
			prev := uint32(ret)
			if prev == threadCallFailed {
				return partialOrErr(changed, fmt.Errorf("ResumeThread in PID %d: %w", pid, callErr))
			}
			if prev <= 1 || round >= maxResumeRounds {
				break
			}
		}
		changed++
	}
	return nil
}

func partialOrErr(changed int, err error) error {
	if changed > 0 {
		return fmt.Errorf("%w after %d thread(s): %v", errPartialThreads, changed, err)
	}
	return err
}

// openThreads returns a THREAD_SUSPEND_RESUME handle for each thread of pid.
// Handles opened before a failure are returned so the caller can close them.
func openThreads(pid uint32) ([]windows.Handle, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot failed: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ThreadEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var handles []windows.Handle
	for err = windows.Thread32First(snap, &entry); err == nil; err = windows.Thread32Next(snap, &entry) {
		if entry.OwnerProcessID != pid {
			continue
		}
		h, openErr := windows.OpenThread(windows.THREAD_SUSPEND_RESUME, false, entry.ThreadID)
		if openErr != nil {
			if errors.Is(openErr, windows.ERROR_ACCESS_DENIED) {
				return handles, fmt.Errorf("%w: thread %d of PID %d", domain.ErrPermissionDenied, entry.ThreadID, pid)
			}
			if errors.Is(openErr, windows.ERROR_INVALID_PARAMETER) {
				// thread exited since the snapshot was taken
				continue
			}
			return handles, fmt.Errorf("OpenThread %d of PID %d: %w", entry.ThreadID, pid, openErr)
		}
		handles = append(handles, h)
	}
	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return handles, fmt.Errorf("Thread32Next failed: %w", err)
	}

	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: PID %d has no threads", domain.ErrProcessNotFound, pid)
	}
	return handles, nil
}

func closeAll(handles []windows.Handle) {
	for _, h := range handles {
		windows.CloseHandle(h)
	}
}
