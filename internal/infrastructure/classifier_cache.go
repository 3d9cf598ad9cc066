package infrastructure

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

type cacheEntry struct {
	Value     bool      `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// FileClassificationCache persists classifier verdicts in a JSON file shared
// between processes. Writes hold an advisory file lock; entries older than
// the TTL are ignored and pruned on the next write.
type FileClassificationCache struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	loaded  bool
	entries map[string]cacheEntry
	lock    *flock.Flock
}

// NewFileClassificationCache creates a cache stored at path
func NewFileClassificationCache(path string, ttl time.Duration) *FileClassificationCache {
	return &FileClassificationCache{
		path:    path,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
		lock:    flock.New(path + ".lock"),
	}
}

// Get returns a fresh cached verdict
func (c *FileClassificationCache) Get(key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		if entries, err := c.readFile(); err == nil {
			c.entries = entries
		}
		c.loaded = true
	}

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return false, false
	}
	return e.Value, true
}

// Set stores a verdict, merging with entries other processes wrote meanwhile
func (c *FileClassificationCache) Set(key string, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock cache: %w", err)
	}
	defer c.lock.Unlock()

	entries, err := c.readFile()
	if err != nil {
		return err
	}

	entries[key] = cacheEntry{Value: value, Timestamp: c.now()}
	for k, e := range entries {
		if c.expired(e) {
			delete(entries, k)
		}
	}

	if err := c.writeFile(entries); err != nil {
		return err
	}

	c.entries = entries
	c.loaded = true
	return nil
}

func (c *FileClassificationCache) expired(e cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.Timestamp) > c.ttl
}

func (c *FileClassificationCache) readFile() (map[string]cacheEntry, error) {
	entries := make(map[string]cacheEntry)

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		// a corrupt cache is rebuilt rather than blocking classification
		return make(map[string]cacheEntry), nil
	}
	return entries, nil
}

func (c *FileClassificationCache) writeFile(entries map[string]cacheEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}
