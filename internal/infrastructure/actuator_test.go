package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickResume/internal/domain"
)

type fakeProvider struct {
	records []domain.ProcessRecord
	err     error
}

func (f *fakeProvider) ListProcesses(context.Context) ([]domain.ProcessRecord, error) {
	return domain.CloneSnapshot(f.records), f.err
}

// fakeOps returns the configured error per PID and records which PIDs were touched
type fakeOps struct {
	mu         sync.Mutex
	probeErr   map[int]error
	changeErr  map[int]error
	suspended  []int
	resumed    []int
	probeCalls int
}

func (f *fakeOps) Probe(_ context.Context, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	return f.probeErr[pid]
}

func (f *fakeOps) Suspend(_ context.Context, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.changeErr[pid]; err != nil {
		return err
	}
	f.suspended = append(f.suspended, pid)
	return nil
}

func (f *fakeOps) Resume(_ context.Context, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.changeErr[pid]; err != nil {
		return err
	}
	f.resumed = append(f.resumed, pid)
	return nil
}

// orderedOps records the sequence of calls across all PIDs
type orderedOps struct {
	calls []string
}

func (o *orderedOps) Probe(_ context.Context, pid int) error {
	o.calls = append(o.calls, fmt.Sprintf("probe %d", pid))
	return nil
}

func (o *orderedOps) Suspend(_ context.Context, pid int) error {
	o.calls = append(o.calls, fmt.Sprintf("suspend %d", pid))
	return nil
}

func (o *orderedOps) Resume(_ context.Context, pid int) error {
	o.calls = append(o.calls, fmt.Sprintf("resume %d", pid))
	return nil
}

func mustID(t *testing.T, raw string) domain.Identifier {
	t.Helper()
	id, err := domain.ParseIdentifier(raw)
	require.NoError(t, err)
	return id
}

func TestNativeController_SuspendAllMatches(t *testing.T) {
	provider := &fakeProvider{records: []domain.ProcessRecord{
		{Name: "Game.exe", PID: 1001},
		{Name: "game", PID: 1002},
		{Name: "other.exe", PID: 1003},
	}}
	ops := &fakeOps{}
	c := newNativeController(provider, ops, 0)

	result, err := c.Suspend(context.Background(), mustID(t, "game.exe"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.ElementsMatch(t, []int{1001, 1002}, ops.suspended)

	outcomes, ok := result.Data.([]PIDOutcome)
	require.True(t, ok)
	assert.Len(t, outcomes, 2)
}

func TestNativeController_ByPID(t *testing.T) {
	provider := &fakeProvider{records: []domain.ProcessRecord{
		{Name: "game.exe", PID: 1001, IsSuspended: true},
		{Name: "game.exe", PID: 1002, IsSuspended: true},
	}}
	ops := &fakeOps{}
	c := newNativeController(provider, ops, 0)

	_, err := c.Resume(context.Background(), mustID(t, "1002"))
	require.NoError(t, err)
	assert.Equal(t, []int{1002}, ops.resumed)
}

func TestNativeController_Idempotent(t *testing.T) {
	provider := &fakeProvider{records: []domain.ProcessRecord{
		{Name: "game.exe", PID: 1001, IsSuspended: true},
	}}
	ops := &fakeOps{}
	c := newNativeController(provider, ops, 0)

	result, err := c.Suspend(context.Background(), mustID(t, "game.exe"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, ops.suspended)
	assert.Equal(t, 1, ops.probeCalls)
}

func TestNativeController_DeniedTakesPrecedenceOverNoop(t *testing.T) {
	provider := &fakeProvider{records: []domain.ProcessRecord{{Name: "init", PID: 1}}}
	ops := &fakeOps{probeErr: map[int]error{1: fmt.Errorf("probe: %w", fs.ErrPermission)}}
	c := newNativeController(provider, ops, 0)

	result, err := c.Resume(context.Background(), mustID(t, "init"))
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Nil(t, result)
	assert.Equal(t, 1, ops.probeCalls)
	assert.Empty(t, ops.resumed)
}

func TestNativeController_ProbesEveryMatchBeforeChanging(t *testing.T) {
	provider := &fakeProvider{records: []domain.ProcessRecord{
		{Name: "game", PID: 1001},
		{Name: "game", PID: 1002},
		{Name: "game", PID: 1003},
	}}
	ops := &orderedOps{}
	c := newNativeController(provider, ops, 0)

	_, err := c.Suspend(context.Background(), mustID(t, "game"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"probe 1001", "probe 1002", "probe 1003",
		"suspend 1001", "suspend 1002", "suspend 1003",
	}, ops.calls)
}

func TestNativeController_ExitedMatchDoesNotMakePartial(t *testing.T) {
	provider := &fakeProvider{records: []domain.ProcessRecord{
		{Name: "game", PID: 1001},
		{Name: "game", PID: 1002},
	}}
	ops := &fakeOps{changeErr: map[int]error{1002: syscall.ESRCH}}
	c := newNativeController(provider, ops, 0)

	result, err := c.Suspend(context.Background(), mustID(t, "game"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "1 exited")
	assert.Equal(t, []int{1001}, ops.suspended)
}

func TestNativeController_Errors(t *testing.T) {
	self := os.Getpid()

	tests := []struct {
		name      string
		records   []domain.ProcessRecord
		listErr   error
		probeErr  map[int]error
		changeErr map[int]error
		raw       string
		wantKind  domain.ErrorKind
	}{
		{
			name:     "No match",
			records:  []domain.ProcessRecord{{Name: "other.exe", PID: 1001}},
			raw:      "ghost",
			wantKind: domain.KindProcessNotFound,
		},
		{
			name:     "Self is never a target",
			records:  []domain.ProcessRecord{{Name: "quickresume", PID: self}},
			raw:      "quickresume",
			wantKind: domain.KindProcessNotFound,
		},
		{
			name:     "Listing fails",
			listErr:  errors.New("boom"),
			raw:      "game",
			wantKind: domain.KindActuatorUnavailable,
		},
		{
			name:     "Denied before any change",
			records:  []domain.ProcessRecord{{Name: "game", PID: 1001}},
			probeErr: map[int]error{1001: fmt.Errorf("probe: %w", fs.ErrPermission)},
			raw:      "game",
			wantKind: domain.KindPermissionDenied,
		},
		{
			name:     "Exited before action",
			records:  []domain.ProcessRecord{{Name: "game", PID: 1001}},
			probeErr: map[int]error{1001: syscall.ESRCH},
			raw:      "game",
			wantKind: domain.KindProcessNotFound,
		},
		{
			name:     "One of two denied",
			records:  []domain.ProcessRecord{{Name: "game", PID: 1001}, {Name: "game", PID: 1002}},
			probeErr: map[int]error{1002: fs.ErrPermission},
			raw:      "game",
			wantKind: domain.KindPartialSuspend,
		},
		{
			name:      "Some threads failed",
			records:   []domain.ProcessRecord{{Name: "game", PID: 1001}},
			changeErr: map[int]error{1001: fmt.Errorf("%w: 3 of 8", errPartialThreads)},
			raw:       "game",
			wantKind:  domain.KindPartialSuspend,
		},
		{
			name:      "Unexpected failure",
			records:   []domain.ProcessRecord{{Name: "game", PID: 1001}},
			changeErr: map[int]error{1001: errors.New("ioctl exploded")},
			raw:       "game",
			wantKind:  domain.KindActuatorUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := &fakeOps{probeErr: tt.probeErr, changeErr: tt.changeErr}
			c := newNativeController(&fakeProvider{records: tt.records, err: tt.listErr}, ops, 0)

			result, err := c.Suspend(context.Background(), mustID(t, tt.raw))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantKind, domain.KindOf(err), "error: %v", err)
		})
	}
}

func TestNativeController_DeniedDoesNotMutate(t *testing.T) {
	provider := &fakeProvider{records: []domain.ProcessRecord{{Name: "svc", PID: 1001}}}
	ops := &fakeOps{probeErr: map[int]error{1001: fs.ErrPermission}}
	c := newNativeController(provider, ops, 0)

	_, err := c.Suspend(context.Background(), mustID(t, "svc"))
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Empty(t, ops.suspended)
}

func TestNativeController_RejectsEmptyIdentifier(t *testing.T) {
	c := newNativeController(&fakeProvider{}, &fakeOps{}, 0)

	_, err := c.Resume(context.Background(), domain.Identifier{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
