package cli

import (
	"context"
	"fmt"
	"os"

	"quickResume/config"
	"quickResume/internal/infrastructure"
	"quickResume/internal/logging"
	"quickResume/internal/repository"
	"quickResume/internal/usecase"
)

var appLog = logging.L("app")

// App holds the wired application
type App struct {
	Config  *config.Config
	Service usecase.ProcessService

	warmup  func(ctx context.Context)
	logFile *os.File
}

// NewApp sets up logging and wires the backend, classifier and façade
// selected by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if cfg.Log.Dir != "" {
		logFile, err := logging.SetupLogging(cfg.Log.Dir, cfg.Log.Format, cfg.Log.Level)
		if err != nil {
			appLog.Warn("file logging unavailable, using console only", logging.KeyError, err)
		} else {
			app.logFile = logFile
			if n, err := logging.CleanupOldLogs(cfg.Log.Dir, cfg.Log.MaxAge); err != nil {
				appLog.Warn("failed to clean up old logs", logging.KeyError, err)
			} else if n > 0 {
				appLog.Debug("removed old log files", "count", n)
			}
		}
	}

	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	classifier, warmup, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	app.warmup = warmup

	app.Service = usecase.NewProcessService(backend, classifier, usecase.ServiceConfig{
		Interval:  cfg.Reconcile.Interval,
		Cooldown:  cfg.Reconcile.Cooldown,
		StatusTTL: cfg.Status.TTL,
	})

	appLog.Debug("application wired", "backend", cfg.Backend, "classifier", cfg.Classifier.Mode)
	return app, nil
}

// Warmup fills classifier caches in the background for long-running commands
func (a *App) Warmup(ctx context.Context) {
	if a.warmup != nil {
		go a.warmup(ctx)
	}
}

// Close releases the log file
func (a *App) Close() error {
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}

// NewBackend creates the OS binding named by cfg.Backend
func NewBackend(cfg *config.Config) (repository.Backend, error) {
	switch cfg.Backend {
	case config.BackendNative:
		return infrastructure.NewNativeBackend(cfg.Snapshot.Timeout, cfg.Snapshot.Workers, cfg.Actuator.Timeout), nil
	case config.BackendScript:
		return infrastructure.NewScriptBackend(infrastructure.ScriptBackendConfig{
			Shell:      cfg.Actuator.Shell,
			ScriptPath: cfg.Actuator.ScriptPath,
			Timeout:    cfg.Actuator.Timeout,
			Strict:     cfg.Actuator.StrictOutput,
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// NewClassifier creates the games classifier named by cfg.Classifier.Mode.
// It returns a nil classifier when classification is off, and a warmup
// function when the classifier has a cache worth preloading.
func NewClassifier(cfg *config.Config) (repository.Classifier, func(context.Context), error) {
	if cfg.Classifier.Mode == config.ClassifierOff {
		return nil, nil, nil
	}

	games, err := config.LoadGamesConfig(cfg.Classifier.GamesFile)
	if err != nil {
		return nil, nil, err
	}
	keywords := infrastructure.NewKeywordClassifier(games)

	if cfg.Classifier.Mode != config.ClassifierRAWG {
		return keywords, nil, nil
	}

	cache := infrastructure.NewFileClassificationCache(cfg.Classifier.CacheFile, cfg.Classifier.CacheTTL)
	rawg := infrastructure.NewRAWGClassifier(cfg.Classifier.RAWGURL, cfg.Classifier.RAWGAPIKey, cache)
	warmup := func(ctx context.Context) {
		rawg.Preload(ctx, games.KnownGames)
	}

	return infrastructure.AnyClassifier{keywords, rawg}, warmup, nil
}
