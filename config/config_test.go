package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendNative, cfg.Backend)
	assert.Equal(t, 2*time.Second, cfg.Reconcile.Interval)
	assert.Equal(t, 300*time.Millisecond, cfg.Reconcile.Cooldown)
	assert.Equal(t, 3*time.Second, cfg.Status.TTL)
	assert.True(t, cfg.Actuator.StrictOutput)
	assert.NotEmpty(t, cfg.Classifier.CacheFile)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeFile(t, "quickresume.yaml", `
backend: script
reconcile:
  interval: 5s
  cooldown: 500ms
actuator:
  script_path: C:\tools\Quick-Resume.ps1
  strict_output: false
classifier:
  mode: "off"
`)
	t.Setenv("QUICKRESUME_RECONCILE_INTERVAL", "1s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendScript, cfg.Backend)
	assert.Equal(t, time.Second, cfg.Reconcile.Interval, "environment overrides file")
	assert.Equal(t, 500*time.Millisecond, cfg.Reconcile.Cooldown)
	assert.Equal(t, `C:\tools\Quick-Resume.ps1`, cfg.Actuator.ScriptPath)
	assert.False(t, cfg.Actuator.StrictOutput)
	assert.Equal(t, ClassifierOff, cfg.Classifier.Mode)
	assert.Equal(t, 8, cfg.Snapshot.Workers, "unset keys keep defaults")
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeFile(t, "bad.yaml", "backend: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults", func(*Config) {}, false},
		{"Unknown backend", func(c *Config) { c.Backend = "wmi" }, true},
		{"Unknown classifier", func(c *Config) { c.Classifier.Mode = "ml" }, true},
		{"RAWG without key", func(c *Config) { c.Classifier.Mode = ClassifierRAWG }, true},
		{"RAWG with key", func(c *Config) {
			c.Classifier.Mode = ClassifierRAWG
			c.Classifier.RAWGAPIKey = "k"
		}, false},
		{"Zero interval", func(c *Config) { c.Reconcile.Interval = 0 }, true},
		{"Negative cooldown", func(c *Config) { c.Reconcile.Cooldown = -time.Second }, true},
		{"Zero cooldown allowed", func(c *Config) { c.Reconcile.Cooldown = 0 }, false},
		{"No workers", func(c *Config) { c.Snapshot.Workers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettings_ContainsNestedKeys(t *testing.T) {
	settings := Default().Settings()

	reconcile, ok := settings["reconcile"].(map[string]any)
	require.True(t, ok, "reconcile section missing: %#v", settings)
	assert.Equal(t, 2*time.Second, reconcile["interval"])
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir on Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
