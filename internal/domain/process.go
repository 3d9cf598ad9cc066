package domain

import (
	"strconv"
	"strings"
)

// ProcessRecord is one observed OS process at a point in time.
// Records are snapshot values and must not be modified once published.
type ProcessRecord struct {
	Name        string `json:"Name"`
	PID         int    `json:"Id"`
	WindowTitle string `json:"WindowTitle"`
	IsSuspended bool   `json:"IsSuspended"`
}

// ProcessStatus is the coarse state shown to users
type ProcessStatus string

const (
	StatusRunning   ProcessStatus = "running"
	StatusSuspended ProcessStatus = "suspended"
)

// Status reports the record's state
func (p ProcessRecord) Status() ProcessStatus {
	if p.IsSuspended {
		return StatusSuspended
	}
	return StatusRunning
}

// Validate validates record data
func (p ProcessRecord) Validate() error {
	if p.PID <= 0 {
		return ErrInvalidPID
	}

	if p.Name == "" {
		return ErrInvalidProcessName
	}

	return nil
}

// Identifier selects the target of a suspend or resume. Exactly one of
// Name or PID is set.
type Identifier struct {
	Raw  string
	Name string
	PID  int
}

// ParseIdentifier accepts a decimal PID or a process name.
func ParseIdentifier(raw string) (Identifier, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Identifier{}, NewOperationError(KindValidation, "parse", raw, ErrEmptyIdentifier)
	}

	if pid, err := strconv.Atoi(trimmed); err == nil {
		if pid <= 0 {
			return Identifier{}, NewOperationError(KindValidation, "parse", raw, ErrInvalidPID)
		}
		return Identifier{Raw: trimmed, PID: pid}, nil
	}

	if strings.ContainsAny(trimmed, "\"\x00\r\n") {
		return Identifier{}, NewOperationError(KindValidation, "parse", raw, ErrInvalidProcessName)
	}

	return Identifier{Raw: trimmed, Name: trimmed}, nil
}

// IsPID reports whether the identifier names a single process id
func (id Identifier) IsPID() bool {
	return id.PID > 0
}

func (id Identifier) String() string {
	return id.Raw
}

// Matches reports whether the record is selected by the identifier.
// Names compare case-insensitively and ignore an ".exe" suffix on either side.
func (id Identifier) Matches(p ProcessRecord) bool {
	if id.IsPID() {
		return p.PID == id.PID
	}
	return NormalizeName(p.Name) == NormalizeName(id.Name)
}

// NormalizeName lower-cases a process name and strips a trailing ".exe"
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(n, ".exe")
}

// CloneSnapshot returns an independent copy of a snapshot
func CloneSnapshot(records []ProcessRecord) []ProcessRecord {
	if records == nil {
		return nil
	}
	out := make([]ProcessRecord, len(records))
	copy(out, records)
	return out
}
