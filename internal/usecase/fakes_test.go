package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"quickResume/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// gatedProvider blocks every fetch until release is closed when gated
type gatedProvider struct {
	mu      sync.Mutex
	records []domain.ProcessRecord
	err     error

	gated   bool
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedProvider(records []domain.ProcessRecord) *gatedProvider {
	return &gatedProvider{
		records: records,
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (p *gatedProvider) set(records []domain.ProcessRecord, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records, p.err = records, err
}

func (p *gatedProvider) ListProcesses(ctx context.Context) ([]domain.ProcessRecord, error) {
	p.calls.Add(1)
	p.started <- struct{}{}

	p.mu.Lock()
	gated := p.gated
	p.mu.Unlock()
	if gated {
		<-p.release
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return domain.CloneSnapshot(p.records), nil
}

// fakeBackend is an in-memory process table
type fakeBackend struct {
	mu      sync.Mutex
	procs   []domain.ProcessRecord
	listErr error
	opErr   error
	opFail  *domain.OperationResult

	opCalls atomic.Int32

	// overlap detection between actuator calls and fetches
	listing   atomic.Int32
	actuating atomic.Int32
	overlaps  atomic.Int32
}

func (b *fakeBackend) ListProcesses(context.Context) ([]domain.ProcessRecord, error) {
	b.listing.Add(1)
	defer b.listing.Add(-1)
	if b.actuating.Load() > 0 {
		b.overlaps.Add(1)
	}
	time.Sleep(time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return domain.CloneSnapshot(b.procs), nil
}

func (b *fakeBackend) Suspend(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error) {
	return b.set(id, true)
}

func (b *fakeBackend) Resume(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error) {
	return b.set(id, false)
}

func (b *fakeBackend) set(id domain.Identifier, suspended bool) (*domain.OperationResult, error) {
	b.opCalls.Add(1)
	b.actuating.Add(1)
	defer b.actuating.Add(-1)
	if b.listing.Load() > 0 {
		b.overlaps.Add(1)
	}
	time.Sleep(time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.opErr != nil {
		return nil, b.opErr
	}
	if b.opFail != nil {
		return b.opFail, nil
	}

	found := false
	for i := range b.procs {
		if id.Matches(b.procs[i]) {
			b.procs[i].IsSuspended = suspended
			found = true
		}
	}
	if !found {
		return nil, domain.NewOperationError(domain.KindProcessNotFound, "set", id.Raw, domain.ErrProcessNotFound)
	}
	return domain.Succeeded("", nil), nil
}

type nameClassifier map[string]bool

func (c nameClassifier) IsGame(_ context.Context, p domain.ProcessRecord) bool {
	return c[p.Name]
}
