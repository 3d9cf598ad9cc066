package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names
const (
	BackendNative = "native"
	BackendScript = "script"
)

// Classifier modes
const (
	ClassifierKeywords = "keywords"
	ClassifierRAWG     = "rawg"
	ClassifierOff      = "off"
)

// Config holds application configuration
type Config struct {
	Backend string `mapstructure:"backend"`

	Reconcile  ReconcileConfig  `mapstructure:"reconcile"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
	Actuator   ActuatorConfig   `mapstructure:"actuator"`
	Status     StatusConfig     `mapstructure:"status"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
}

// ReconcileConfig controls the refresh loop
type ReconcileConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// SnapshotConfig bounds process enumeration
type SnapshotConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
}

// ActuatorConfig controls suspend/resume execution
type ActuatorConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	ScriptPath   string        `mapstructure:"script_path"`
	Shell        string        `mapstructure:"shell"`
	StrictOutput bool          `mapstructure:"strict_output"`
}

// StatusConfig controls transient status messages
type StatusConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ClassifierConfig selects the games heuristic
type ClassifierConfig struct {
	Mode       string        `mapstructure:"mode"`
	GamesFile  string        `mapstructure:"games_file"`
	RAWGAPIKey string        `mapstructure:"rawg_api_key"`
	RAWGURL    string        `mapstructure:"rawg_url"`
	CacheFile  string        `mapstructure:"cache_file"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig controls logging output
type LogConfig struct {
	Format string        `mapstructure:"format"`
	Level  string        `mapstructure:"level"`
	Dir    string        `mapstructure:"dir"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// ServerConfig controls the HTTP façade
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Backend: BackendNative,
		Reconcile: ReconcileConfig{
			Interval: 2 * time.Second,
			Cooldown: 300 * time.Millisecond,
		},
		Snapshot: SnapshotConfig{
			Timeout: 10 * time.Second,
			Workers: 8,
		},
		Actuator: ActuatorConfig{
			Timeout:      30 * time.Second,
			ScriptPath:   "Quick-Resume.ps1",
			Shell:        "powershell",
			StrictOutput: true,
		},
		Status: StatusConfig{TTL: 3 * time.Second},
		Classifier: ClassifierConfig{
			Mode:     ClassifierKeywords,
			RAWGURL:  "https://api.rawg.io/api",
			CacheTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
			MaxAge: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{Listen: "127.0.0.1:7420"},
	}
}

// Load reads configuration from cfgFile (or quickresume.yaml in the usual
// places) and QUICKRESUME_* environment variables on top of Default().
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("quickresume")
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("QUICKRESUME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Classifier.CacheFile == "" {
		cfg.Classifier.CacheFile = defaultCacheFile()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the rest of the program cannot run with
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendScript:
	default:
		return fmt.Errorf("unknown backend %q (expected %q or %q)", c.Backend, BackendNative, BackendScript)
	}

	switch c.Classifier.Mode {
	case ClassifierKeywords, ClassifierRAWG, ClassifierOff:
	default:
		return fmt.Errorf("unknown classifier mode %q", c.Classifier.Mode)
	}

	if c.Classifier.Mode == ClassifierRAWG && c.Classifier.RAWGAPIKey == "" {
		return errors.New("classifier.rawg_api_key is required when classifier.mode is rawg")
	}

	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("reconcile.interval must be positive, got %v", c.Reconcile.Interval)
	}
	if c.Reconcile.Cooldown < 0 {
		return fmt.Errorf("reconcile.cooldown must not be negative, got %v", c.Reconcile.Cooldown)
	}
	if c.Snapshot.Timeout <= 0 || c.Actuator.Timeout <= 0 {
		return errors.New("snapshot.timeout and actuator.timeout must be positive")
	}
	if c.Snapshot.Workers < 1 {
		return fmt.Errorf("snapshot.workers must be at least 1, got %d", c.Snapshot.Workers)
	}

	return nil
}

// Settings flattens the configuration for display
func (c *Config) Settings() map[string]any {
	v := viper.New()
	setDefaults(v, c)
	return v.AllSettings()
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("backend", c.Backend)
	v.SetDefault("reconcile.interval", c.Reconcile.Interval)
	v.SetDefault("reconcile.cooldown", c.Reconcile.Cooldown)
	v.SetDefault("snapshot.timeout", c.Snapshot.Timeout)
	v.SetDefault("snapshot.workers", c.Snapshot.Workers)
	v.SetDefault("actuator.timeout", c.Actuator.Timeout)
	v.SetDefault("actuator.script_path", c.Actuator.ScriptPath)
	v.SetDefault("actuator.shell", c.Actuator.Shell)
	v.SetDefault("actuator.strict_output", c.Actuator.StrictOutput)
	v.SetDefault("status.ttl", c.Status.TTL)
	v.SetDefault("classifier.mode", c.Classifier.Mode)
	v.SetDefault("classifier.games_file", c.Classifier.GamesFile)
	v.SetDefault("classifier.rawg_api_key", c.Classifier.RAWGAPIKey)
	v.SetDefault("classifier.rawg_url", c.Classifier.RAWGURL)
	v.SetDefault("classifier.cache_file", c.Classifier.CacheFile)
	v.SetDefault("classifier.cache_ttl", c.Classifier.CacheTTL)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.dir", c.Log.Dir)
	v.SetDefault("log.max_age", c.Log.MaxAge)
	v.SetDefault("server.listen", c.Server.Listen)
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quickresume")
}

func defaultCacheFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "quickresume", "games.json")
}
