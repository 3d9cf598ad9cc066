package usecase

import (
	"context"
	"sync"
	"time"

	"quickResume/internal/domain"
	"quickResume/internal/logging"
	"quickResume/internal/repository"
)

var reconcilerLog = logging.L("reconciler")

// ReconcilerState is the refresh state of the loop
type ReconcilerState int

const (
	StateIdle ReconcilerState = iota
	StateRefreshing
)

func (s ReconcilerState) String() string {
	if s == StateRefreshing {
		return "Refreshing"
	}
	return "Idle"
}

// SnapshotEvent is delivered to subscribers after every completed refresh.
// On failure Err is set and Records holds the snapshot still published.
type SnapshotEvent struct {
	Version uint64
	Records []domain.ProcessRecord
	Err     error
	At      time.Time
}

// ReconcilerConfig configures the loop
type ReconcilerConfig struct {
	Interval time.Duration
	Cooldown time.Duration
	Clock    repository.Clock

	// FetchLock is held while fetching and publishing
	FetchLock sync.Locker
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Reconciler keeps a published snapshot in sync with the OS. At most one
// fetch is in flight; requests arriving meanwhile are dropped, and
// non-forced requests within the cooldown of the last completion are dropped too.
type Reconciler struct {
	provider  repository.SnapshotProvider
	clock     repository.Clock
	interval  time.Duration
	cooldown  time.Duration
	fetchLock sync.Locker

	mu            sync.Mutex
	state         ReconcilerState
	lastCompleted time.Time
	completed     bool

	snapMu   sync.RWMutex
	snapshot []domain.ProcessRecord
	version  uint64
	lastErr  error

	subMu   sync.Mutex
	subs    map[int]chan SnapshotEvent
	nextSub int
}

// NewReconciler creates a loop over provider
func NewReconciler(provider repository.SnapshotProvider, cfg ReconcilerConfig) *Reconciler {
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.FetchLock == nil {
		cfg.FetchLock = noopLocker{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Reconciler{
		provider:  provider,
		clock:     cfg.Clock,
		interval:  cfg.Interval,
		cooldown:  cfg.Cooldown,
		fetchLock: cfg.FetchLock,
		subs:      make(map[int]chan SnapshotEvent),
	}
}

// Run refreshes immediately and then on every tick until ctx is done.
// Fetch errors are reported to subscribers and the loop carries on.
func (r *Reconciler) Run(ctx context.Context) error {
	reconcilerLog.Info("reconciliation loop started", "interval", r.interval, "cooldown", r.cooldown)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			reconcilerLog.Info("reconciliation loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh fetches a new snapshot unless one is in flight or the cooldown has
// not elapsed. It reports whether a fetch ran.
func (r *Reconciler) Refresh(ctx context.Context) bool {
	return r.refresh(ctx, false)
}

// ForceRefresh ignores the cooldown but still never overlaps an in-flight fetch
func (r *Reconciler) ForceRefresh(ctx context.Context) bool {
	return r.refresh(ctx, true)
}

func (r *Reconciler) refresh(ctx context.Context, force bool) bool {
	if !r.begin(force) {
		reconcilerLog.Debug("refresh request dropped", "forced", force)
		return false
	}

	r.fetchLock.Lock()
	start := r.clock.Now()
	records, err := r.provider.ListProcesses(ctx)
	event := r.publish(records, err)
	r.fetchLock.Unlock()

	r.finish()

	if err != nil {
		reconcilerLog.Warn("snapshot refresh failed", logging.KeyError, err)
	} else {
		reconcilerLog.Debug("snapshot refreshed", "version", event.Version, "count", len(records),
			logging.KeyDurationMs, r.clock.Now().Sub(start).Milliseconds())
	}

	r.notify(event)
	return true
}

func (r *Reconciler) begin(force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRefreshing {
		return false
	}
	if !force && r.completed && r.clock.Now().Sub(r.lastCompleted) < r.cooldown {
		return false
	}
	r.state = StateRefreshing
	return true
}

func (r *Reconciler) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateIdle
	r.lastCompleted = r.clock.Now()
	r.completed = true
}

// publish replaces the snapshot on success; on failure the previous snapshot stays
func (r *Reconciler) publish(records []domain.ProcessRecord, err error) SnapshotEvent {
	r.snapMu.Lock()
	defer r.snapMu.Unlock()

	r.lastErr = err
	if err == nil {
		r.snapshot = domain.CloneSnapshot(records)
		if r.snapshot == nil {
			r.snapshot = []domain.ProcessRecord{}
		}
		r.version++
	}

	return SnapshotEvent{
		Version: r.version,
		Records: domain.CloneSnapshot(r.snapshot),
		Err:     err,
		At:      r.clock.Now(),
	}
}

// State returns the current refresh state
func (r *Reconciler) State() ReconcilerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns a copy of the published snapshot and its version.
// Version 0 means nothing has been published yet.
func (r *Reconciler) Snapshot() ([]domain.ProcessRecord, uint64) {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return domain.CloneSnapshot(r.snapshot), r.version
}

// LastError returns the error of the most recent refresh, if it failed
func (r *Reconciler) LastError() error {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.lastErr
}

// Subscribe returns a channel holding the latest event. Slow readers miss
// intermediate events but always see the newest one. The returned function
// unsubscribes.
func (r *Reconciler) Subscribe() (<-chan SnapshotEvent, func()) {
	ch := make(chan SnapshotEvent, 1)

	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subMu.Unlock()

	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
	}
}

func (r *Reconciler) notify(event SnapshotEvent) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for _, ch := range r.subs {
		// replace a stale unread event
		select {
		case <-ch:
		default:
		}
		e := event
		e.Records = domain.CloneSnapshot(event.Records)
		select {
		case ch <- e:
		default:
		}
	}
}
