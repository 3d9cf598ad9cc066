package usecase

import (
	"sync"
	"time"

	"quickResume/internal/repository"
)

// DefaultStatusTTL is how long a status message stays visible
const DefaultStatusTTL = 3 * time.Second

// StatusMessage is a transient notice shown to the user
type StatusMessage struct {
	Text      string    `json:"text"`
	IsError   bool      `json:"isError"`
	PostedAt  time.Time `json:"postedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StatusBoard holds the latest status message. A new message replaces the
// previous one; messages expire after the TTL.
type StatusBoard struct {
	clock repository.Clock
	ttl   time.Duration

	mu      sync.Mutex
	current *StatusMessage
}

// NewStatusBoard creates a board. A nil clock uses the system clock.
func NewStatusBoard(ttl time.Duration, clock repository.Clock) *StatusBoard {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &StatusBoard{clock: clock, ttl: ttl}
}

// Success posts an informational message
func (b *StatusBoard) Success(text string) {
	b.post(text, false)
}

// Error posts an error message
func (b *StatusBoard) Error(text string) {
	b.post(text, true)
}

func (b *StatusBoard) post(text string, isError bool) {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = &StatusMessage{
		Text:      text,
		IsError:   isError,
		PostedAt:  now,
		ExpiresAt: now.Add(b.ttl),
	}
}

// Current returns the visible message, if any
func (b *StatusBoard) Current() (StatusMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return StatusMessage{}, false
	}
	if !b.clock.Now().Before(b.current.ExpiresAt) {
		b.current = nil
		return StatusMessage{}, false
	}
	return *b.current, true
}

// Clear dismisses the current message
func (b *StatusBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
}
