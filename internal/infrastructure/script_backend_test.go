package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickResume/internal/domain"
	"quickResume/internal/usecase"
)

// TestHelperProcess stands in for the actuator script. The scenario is passed
// where the script path would go.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	scenario, rest := args[0], strings.Join(args[1:], " ")

	switch scenario {
	case "status":
		fmt.Println(`Loading module...`)
		fmt.Println(`{"Success":true,"Data":[{"Name":"game.exe","Id":10,"IsSuspended":false},{"Name":"idle.exe","Id":11,"IsSuspended":true}]}`)
	case "echo":
		fmt.Printf(`{"Success":true,"Message":%q,"Logs":[{"Type":"Info","Message":"hello"}]}`+"\n", rest)
	case "status-nodata":
		fmt.Println(`{"Success":true}`)
	case "status-none":
		fmt.Println(`{"Success":true,"Data":[]}`)
	case "notfound":
		fmt.Println(`{"Success":false,"Message":"Process 'ghost' not found"}`)
	case "denied-kind":
		fmt.Println(`{"Success":false,"Kind":"PermissionDenied","Message":"nope"}`)
	case "garbage":
		fmt.Println("this is not json")
	case "empty":
	case "crash":
		fmt.Fprintln(os.Stderr, "fatal")
		os.Exit(3)
	case "crash-with-result":
		fmt.Println(`{"Success":false,"Message":"Access is denied"}`)
		os.Exit(1)
	case "hang":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

func helperBackend(t *testing.T, scenario string, strict bool, timeout time.Duration) *ScriptBackend {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	return NewScriptBackend(ScriptBackendConfig{
		Shell:      os.Args[0],
		ShellArgs:  []string{"-test.run=TestHelperProcess", "--"},
		ScriptPath: scenario,
		Timeout:    timeout,
		Strict:     strict,
	})
}

func TestScriptBackend_ListProcesses(t *testing.T) {
	b := helperBackend(t, "status", true, 10*time.Second)

	records, err := b.ListProcesses(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "game.exe", records[0].Name)
	assert.True(t, records[1].IsSuspended)
}

func TestScriptBackend_ListWithoutDataFails(t *testing.T) {
	tests := []struct {
		name     string
		scenario string
		strict   bool
	}{
		{"Success without Data", "status-nodata", true},
		{"Empty output in lenient mode", "empty", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := helperBackend(t, tt.scenario, tt.strict, 10*time.Second)

			records, err := b.ListProcesses(context.Background())
			require.Error(t, err)
			assert.Nil(t, records)
			assert.Equal(t, domain.KindMalformedResponse, domain.KindOf(err), "error: %v", err)
		})
	}
}

func TestScriptBackend_ListExplicitlyEmpty(t *testing.T) {
	b := helperBackend(t, "status-none", true, 10*time.Second)

	records, err := b.ListProcesses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestScriptBackend_ReconcilerKeepsSnapshotOnBadList(t *testing.T) {
	b := helperBackend(t, "status", true, 10*time.Second)
	r := usecase.NewReconciler(b, usecase.ReconcilerConfig{})
	ctx := context.Background()

	require.True(t, r.ForceRefresh(ctx))
	before, version := r.Snapshot()
	require.Len(t, before, 2)
	require.Equal(t, uint64(1), version)

	b.cfg.ScriptPath = "status-nodata"
	require.True(t, r.ForceRefresh(ctx))

	after, afterVersion := r.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, version, afterVersion)
	assert.Equal(t, domain.KindMalformedResponse, domain.KindOf(r.LastError()))
}

func TestScriptBackend_PassesVerbAndName(t *testing.T) {
	b := helperBackend(t, "echo", true, 10*time.Second)

	result, err := b.Suspend(context.Background(), mustID(t, "game.exe"))
	require.NoError(t, err)
	assert.Equal(t, "-Command Suspend-Process -ProcessName game.exe", result.Message)
	assert.Len(t, result.Logs, 1)
}

func TestScriptBackend_Failures(t *testing.T) {
	tests := []struct {
		scenario string
		strict   bool
		wantKind domain.ErrorKind
	}{
		{"notfound", true, domain.KindProcessNotFound},
		{"denied-kind", true, domain.KindPermissionDenied},
		{"garbage", true, domain.KindMalformedResponse},
		{"empty", true, domain.KindMalformedResponse},
		{"crash", true, domain.KindActuatorUnavailable},
		{"crash-with-result", true, domain.KindPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			b := helperBackend(t, tt.scenario, tt.strict, 10*time.Second)

			result, err := b.Resume(context.Background(), mustID(t, "ghost"))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantKind, domain.KindOf(err), "error: %v", err)
		})
	}
}

func TestScriptBackend_EmptyOutputLenient(t *testing.T) {
	b := helperBackend(t, "empty", false, 10*time.Second)

	result, err := b.Resume(context.Background(), mustID(t, "game"))
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestScriptBackend_Timeout(t *testing.T) {
	b := helperBackend(t, "hang", true, 200*time.Millisecond)

	start := time.Now()
	_, err := b.Suspend(context.Background(), mustID(t, "game"))
	require.ErrorIs(t, err, domain.ErrActuatorUnavailable)
	assert.True(t, time.Since(start) < 5*time.Second, "timeout not enforced")
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &limitedWriter{buf: &buf, limit: 4}

	n, err := w.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, _ = w.Write([]byte("gh"))
	assert.Equal(t, "abcd", buf.String())
}
