//go:build windows

package infrastructure

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"

	"quickResume/internal/logging"
)

var debugPrivilegeOnce sync.Once

// enableDebugPrivilegeOnce turns on SeDebugPrivilege the first time the native
// ops are created. Without it only processes owned by the current user can be
// opened; the probe step still reports those as PermissionDenied.
func enableDebugPrivilegeOnce() {
	debugPrivilegeOnce.Do(func() {
		if err := enableDebugPrivilege(); err != nil {
			actuatorLog.Debug("SeDebugPrivilege not available", logging.KeyError, err)
			return
		}
		actuatorLog.Debug("SeDebugPrivilege enabled")
	})
}

func enableDebugPrivilege() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(),
		windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("OpenProcessToken failed: %w", err)
	}
	defer token.Close()

	var luid windows.LUID
	err = windows.LookupPrivilegeValue(nil, windows.StringToUTF16Ptr("SeDebugPrivilege"), &luid)
	if err != nil {
		return fmt.Errorf("LookupPrivilegeValue failed: %w", err)
	}

	tp := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{
			{Luid: luid, Attributes: windows.SE_PRIVILEGE_ENABLED},
		},
	}

	// AdjustTokenPrivileges succeeds with ERROR_NOT_ALL_ASSIGNED when the
	// account lacks the privilege
	if err := windows.AdjustTokenPrivileges(token, false, &tp, 0, nil, nil); err != nil {
		return fmt.Errorf("AdjustTokenPrivileges failed: %w", err)
	}
	if errno := windows.GetLastError(); errno == windows.ERROR_NOT_ALL_ASSIGNED {
		return fmt.Errorf("AdjustTokenPrivileges: %w", errno)
	}
	return nil
}
