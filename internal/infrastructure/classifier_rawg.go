package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"quickResume/internal/domain"
	"quickResume/internal/logging"
	"quickResume/internal/repository"
)

var rawgLog = logging.L("rawg")

type rawgSearchResult struct {
	Count   int `json:"count"`
	Results []struct {
		Name         string  `json:"name"`
		Slug         string  `json:"slug"`
		Released     string  `json:"released"`
		Metacritic   int     `json:"metacritic"`
		Rating       float64 `json:"rating"`
		RatingsCount int     `json:"ratings_count"`
		Added        int     `json:"added"`
		Playtime     int     `json:"playtime"`
	} `json:"results"`
}

// DefaultRAWGRetryAfter is how long lookups stay off after a failed request
const DefaultRAWGRetryAfter = 5 * time.Minute

// RAWGClassifier looks process names up in the RAWG games catalogue and
// caches the verdicts. Lookup failures classify as not-a-game and are not
// cached; after one, uncached names classify as not-a-game without a request
// until retryAfter has passed.
type RAWGClassifier struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	cache      repository.ClassificationCache
	retryAfter time.Duration
	now        func() time.Time

	mu         sync.Mutex
	pausedTill time.Time
}

// NewRAWGClassifier creates a catalogue classifier
func NewRAWGClassifier(baseURL, apiKey string, cache repository.ClassificationCache) *RAWGClassifier {
	return &RAWGClassifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		retryAfter: DefaultRAWGRetryAfter,
		now:        time.Now,
	}
}

func (c *RAWGClassifier) IsGame(ctx context.Context, p domain.ProcessRecord) bool {
	return c.IsGameByName(ctx, p.Name)
}

// IsGameByName classifies a raw executable name
func (c *RAWGClassifier) IsGameByName(ctx context.Context, processName string) bool {
	key := domain.CleanProcessName(processName)
	if key == "" {
		return false
	}

	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v
		}
	}

	if c.paused() {
		return false
	}

	isGame, err := c.lookup(ctx, key)
	if err != nil {
		c.pause()
		rawgLog.Warn("catalogue lookup failed, pausing lookups", "name", key,
			"retryAfter", c.retryAfter, logging.KeyError, err)
		return false
	}

	if c.cache != nil {
		if err := c.cache.Set(key, isGame); err != nil {
			rawgLog.Warn("failed to cache verdict", "name", key, logging.KeyError, err)
		}
	}
	return isGame
}

func (c *RAWGClassifier) paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.pausedTill)
}

func (c *RAWGClassifier) pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pausedTill = c.now().Add(c.retryAfter)
}

// Preload classifies names that are not cached yet
func (c *RAWGClassifier) Preload(ctx context.Context, names []string) {
	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		if c.cache != nil {
			if _, ok := c.cache.Get(domain.CleanProcessName(name)); ok {
				continue
			}
		}
		c.IsGameByName(ctx, name)
	}
}

func (c *RAWGClassifier) lookup(ctx context.Context, name string) (bool, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("search", name)
	q.Set("page_size", "10")
	q.Set("ordering", "-metacritic,-rating,-added")
	q.Set("exclude_additions", "true")
	q.Set("search_precise", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/games?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var result rawgSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, game := range result.Results {
		pop := domain.GamePopularity{
			Metacritic:   game.Metacritic,
			Rating:       game.Rating,
			RatingsCount: game.RatingsCount,
			Added:        game.Added,
		}
		if domain.IsLikelyGameMatch(name, game.Name, pop) {
			return true, nil
		}
	}
	return false, nil
}
