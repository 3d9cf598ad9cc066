package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GamesConfig holds the local games heuristic lists
type GamesConfig struct {
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	KnownGames  []string `yaml:"known_games"`
	Keywords    []string `yaml:"keywords"`
	Exclude     []string `yaml:"exclude,omitempty"`
}

// DefaultGames returns the built-in lists
func DefaultGames() *GamesConfig {
	return &GamesConfig{
		Version: "1",
		KnownGames: []string{
			"theescapists2",
			"minecraft",
			"rocketleague",
			"csgo",
			"dota2",
			"gta5",
			"gtav",
			"ark",
			"shootergame", // ARK's executable name
		},
		Keywords: []string{
			"game",
			"play",
			"player",
			"score",
			"level",
			"mission",
			"survival",
			"evolved",
		},
	}
}

// LoadGamesConfig loads the games lists from a YAML file. An empty path
// returns the built-in lists.
func LoadGamesConfig(path string) (*GamesConfig, error) {
	if path == "" {
		return DefaultGames(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read games config: %w", err)
	}

	var games GamesConfig
	if err := yaml.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("failed to parse games config: %w", err)
	}

	games.normalize()
	return &games, nil
}

func (g *GamesConfig) normalize() {
	for _, list := range [][]string{g.KnownGames, g.Keywords, g.Exclude} {
		for i := range list {
			list[i] = strings.ToLower(strings.TrimSpace(list[i]))
		}
	}
}

// IsKnownGame checks if a lower-cased process name contains a known game name
func (g *GamesConfig) IsKnownGame(name string) bool {
	for _, game := range g.KnownGames {
		if game != "" && strings.Contains(name, game) {
			return true
		}
	}
	return false
}

// HasKeyword checks if any lower-cased text contains a game keyword
func (g *GamesConfig) HasKeyword(texts ...string) bool {
	for _, keyword := range g.Keywords {
		if keyword == "" {
			continue
		}
		for _, text := range texts {
			if strings.Contains(text, keyword) {
				return true
			}
		}
	}
	return false
}

// IsExcluded checks if a lower-cased process name is explicitly not a game
func (g *GamesConfig) IsExcluded(name string) bool {
	for _, ex := range g.Exclude {
		if ex != "" && strings.TrimSuffix(name, ".exe") == strings.TrimSuffix(ex, ".exe") {
			return true
		}
	}
	return false
}

// UpdateKnownGames adds new known games (for runtime updates)
func (g *GamesConfig) UpdateKnownGames(names []string) {
	for _, name := range names {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" {
			continue
		}
		exists := false
		for _, existing := range g.KnownGames {
			if existing == lower {
				exists = true
				break
			}
		}
		if !exists {
			g.KnownGames = append(g.KnownGames, lower)
		}
	}
}

// Save writes the games lists back to a YAML file
func (g *GamesConfig) Save(path string) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal games config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write games config: %w", err)
	}

	return nil
}
