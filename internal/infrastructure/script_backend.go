package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"quickResume/internal/domain"
	"quickResume/internal/logging"
)

var scriptLog = logging.L("script-backend")

// Verbs understood by the actuator script
const (
	VerbSuspend = "Suspend-Process"
	VerbResume  = "Resume-Process"
	VerbStatus  = "Get-AppsStatus"
)

// MaxOutputSize is the maximum size of stdout/stderr to capture
const MaxOutputSize = 1024 * 1024

// ScriptBackendConfig describes how to invoke the actuator script
type ScriptBackendConfig struct {
	Shell      string
	ShellArgs  []string // nil derives arguments from Shell
	ScriptPath string
	Timeout    time.Duration
	Strict     bool
}

// ScriptBackend lists, suspends and resumes processes by running an external
// script that prints one JSON result object.
type ScriptBackend struct {
	cfg ScriptBackendConfig
}

// NewScriptBackend creates a script backend
func NewScriptBackend(cfg ScriptBackendConfig) *ScriptBackend {
	if cfg.ShellArgs == nil {
		cfg.ShellArgs = defaultShellArgs(cfg.Shell)
	}
	return &ScriptBackend{cfg: cfg}
}

func defaultShellArgs(shell string) []string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(shell), filepath.Ext(shell)))
	switch base {
	case "powershell", "pwsh":
		return []string{"-ExecutionPolicy", "Bypass", "-NoProfile", "-NonInteractive", "-NoLogo", "-File"}
	default:
		return []string{}
	}
}

// ListProcesses runs Get-AppsStatus
func (b *ScriptBackend) ListProcesses(ctx context.Context) ([]domain.ProcessRecord, error) {
	result, err := b.invoke(ctx, VerbStatus, "")
	if err != nil {
		return nil, err
	}
	// A list answer without Data cannot be told apart from a broken script,
	// and publishing it would blank the visible snapshot.
	records, ok := result.Records()
	if !ok {
		return nil, domain.NewOperationError(domain.KindMalformedResponse, VerbStatus, "",
			fmt.Errorf("%w: %s result carries no process list", domain.ErrMalformedResponse, VerbStatus))
	}
	return records, nil
}

// Suspend runs Suspend-Process for a process name
func (b *ScriptBackend) Suspend(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error) {
	return b.invoke(ctx, VerbSuspend, scriptTarget(id))
}

// Resume runs Resume-Process for a process name
func (b *ScriptBackend) Resume(ctx context.Context, id domain.Identifier) (*domain.OperationResult, error) {
	return b.invoke(ctx, VerbResume, scriptTarget(id))
}

func scriptTarget(id domain.Identifier) string {
	if id.Name != "" {
		return id.Name
	}
	return id.Raw
}

func (b *ScriptBackend) invoke(ctx context.Context, verb, processName string) (*domain.OperationResult, error) {
	start := time.Now()

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	args := append([]string{}, b.cfg.ShellArgs...)
	args = append(args, b.cfg.ScriptPath, "-Command", verb)
	if processName != "" {
		args = append(args, "-ProcessName", processName)
	}

	cmd := exec.CommandContext(ctx, b.cfg.Shell, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, limit: MaxOutputSize}
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: MaxOutputSize}

	log := scriptLog.With("verb", verb, logging.KeyIdentifier, processName)
	log.Debug("executing actuator script", "shell", b.cfg.Shell, "script", b.cfg.ScriptPath)

	runErr := cmd.Run()

	if stderr.Len() > 0 {
		log.Warn("actuator stderr", "stderr", strings.TrimSpace(stderr.String()))
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return nil, domain.NewOperationError(domain.KindActuatorUnavailable, verb, processName,
				fmt.Errorf("%w: timed out after %v", domain.ErrActuatorUnavailable, time.Since(start).Round(time.Millisecond)))
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, domain.NewOperationError(domain.KindActuatorUnavailable, verb, processName,
				fmt.Errorf("%w: %v", domain.ErrActuatorUnavailable, runErr))
		}
		// A non-zero exit may still carry a result object.
		log.Warn("actuator exited with error", "exitCode", exitErr.ExitCode())
		if len(bytes.TrimSpace(stdout.Bytes())) == 0 {
			return nil, domain.NewOperationError(domain.KindActuatorUnavailable, verb, processName,
				fmt.Errorf("%w: %v", domain.ErrActuatorUnavailable, runErr))
		}
	}

	result, err := ParseActuatorResponse(stdout.Bytes(), b.cfg.Strict)
	if err != nil {
		log.Error("unparseable actuator output", logging.KeyError, err, "output", truncate(stdout.String(), 512))
		var opErr *domain.OperationError
		if errors.As(err, &opErr) {
			opErr.Op, opErr.Identifier = verb, processName
		}
		return nil, err
	}

	forwardLogs(log, result.Logs)
	log.Debug("actuator finished", "success", result.Success, logging.KeyDurationMs, time.Since(start).Milliseconds())

	if !result.Success {
		kind := result.Kind
		if kind == domain.KindNone {
			kind = kindFromMessage(result.Message)
		}
		return nil, domain.NewOperationError(kind, verb, processName, errors.New(result.Message))
	}

	return result, nil
}

// forwardLogs replays script diagnostics at the matching level
func forwardLogs(log *slog.Logger, entries []domain.LogEntry) {
	for _, e := range entries {
		switch strings.ToLower(e.Type) {
		case "error":
			log.Error(e.Message, "source", "script")
		case "warning", "warn":
			log.Warn(e.Message, "source", "script")
		case "debug", "verbose":
			log.Debug(e.Message, "source", "script")
		default:
			log.Info(e.Message, "source", "script")
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// limitedWriter caps captured output; extra bytes are discarded silently
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining > 0 {
		if len(p) > remaining {
			w.buf.Write(p[:remaining])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
