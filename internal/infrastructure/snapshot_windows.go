//go:build windows

package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/windows"
)

const (
	threadStateWaiting  = 5 // KTHREAD_STATE Waiting
	waitReasonSuspended = 5 // KWAIT_REASON Suspended
)

// systemThreadInformation mirrors SYSTEM_THREAD_INFORMATION, which follows
// each SYSTEM_PROCESS_INFORMATION entry NumberOfThreads times.
type systemThreadInformation struct {
	KernelTime      int64
	UserTime        int64
	CreateTime      int64
	WaitTime        uint32
	StartAddress    uintptr
	UniqueProcess   uintptr
	UniqueThread    uintptr
	Priority        int32
	BasePriority    int32
	ContextSwitches uint32
	ThreadState     uint32
	WaitReason      uint32
}

func collectHints(ctx context.Context) (*processHints, error) {
	suspended, err := querySuspendedProcesses()
	if err != nil {
		return nil, err
	}
	return &processHints{
		suspended: suspended,
		titles:    mainWindowTitles(),
	}, nil
}

func isSuspended(_ context.Context, proc *process.Process, hints *processHints) (bool, error) {
	return hints.suspended[proc.Pid], nil
}

// querySuspendedProcesses reads every thread's scheduler state in one
// NtQuerySystemInformation call. A process counts as suspended when all of
// its threads wait with reason Suspended.
func querySuspendedProcesses() (map[int32]bool, error) {
	size := uint32(512 * 1024)
	var buf []byte

	for attempt := 0; attempt < 8; attempt++ {
		buf = make([]byte, size)
		var needed uint32
		err := windows.NtQuerySystemInformation(windows.SystemProcessInformation, unsafe.Pointer(&buf[0]), size, &needed)
		if err == nil {
			break
		}
		if err != windows.STATUS_INFO_LENGTH_MISMATCH {
			return nil, fmt.Errorf("NtQuerySystemInformation failed: %w", err)
		}
		if needed > size {
			size = needed + 64*1024
		} else {
			size *= 2
		}
		buf = nil
	}
	if buf == nil {
		return nil, fmt.Errorf("NtQuerySystemInformation: process table kept growing")
	}

	result := make(map[int32]bool)
	procSize := unsafe.Sizeof(windows.SYSTEM_PROCESS_INFORMATION{})
	threadSize := unsafe.Sizeof(systemThreadInformation{})

	offset := uintptr(0)
	for {
		info := (*windows.SYSTEM_PROCESS_INFORMATION)(unsafe.Pointer(&buf[offset]))

		if info.NumberOfThreads > 0 {
			all := true
			for i := uintptr(0); i < uintptr(info.NumberOfThreads); i++ {
				pos := offset + procSize + i*threadSize
				if pos+threadSize > uintptr(len(buf)) {
					all = false
					break
				}
				th := (*systemThreadInformation)(unsafe.Pointer(&buf[pos]))
				if th.ThreadState != threadStateWaiting || th.WaitReason != waitReasonSuspended {
					all = false
					break
				}
			}
			result[int32(info.UniqueProcessID)] = all
		}

		if info.NextEntryOffset == 0 {
			break
		}
		offset += uintptr(info.NextEntryOffset)
		if offset >= uintptr(len(buf)) {
			break
		}
	}

	return result, nil
}

var (
	titleMu      sync.Mutex
	titleCollect map[int32]string
)

var (
	moduser32          = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW = moduser32.NewProc("GetWindowTextW")
)

var enumWindowsCb = windows.NewCallback(collectWindowTitle)

// mainWindowTitles maps each PID to the title of its first visible top-level window
func mainWindowTitles() map[int32]string {
	titleMu.Lock()
	defer titleMu.Unlock()

	titleCollect = make(map[int32]string)
	if err := windows.EnumWindows(enumWindowsCb, nil); err != nil {
		snapshotLog.Debug("EnumWindows failed", "error", err)
	}
	titles := titleCollect
	titleCollect = nil
	return titles
}

func collectWindowTitle(hwnd windows.HWND, _ uintptr) uintptr {
	if !windows.IsWindowVisible(hwnd) {
		return 1
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
		return 1
	}
	if _, seen := titleCollect[int32(pid)]; seen {
		return 1
	}

	title := windowText(hwnd)
	if title == "" {
		return 1
	}

	titleCollect[int32(pid)] = title
	return 1
}

// windowText returns the window's title, or "" when it has none
func windowText(hwnd windows.HWND) string {
	text := make([]uint16, 512)
	ret, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&text[0])), uintptr(len(text)))
	n := int(ret)
	if n <= 0 || n > len(text) {
		return ""
	}
	return windows.UTF16ToString(text[:n])
}
