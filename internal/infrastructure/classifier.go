package infrastructure

import (
	"context"
	"strings"

	"quickResume/config"
	"quickResume/internal/domain"
	"quickResume/internal/repository"
)

// KeywordClassifier flags processes whose name contains a known game or whose
// name or window title contains a game keyword.
type KeywordClassifier struct {
	games *config.GamesConfig
}

// NewKeywordClassifier creates a classifier over the given lists
func NewKeywordClassifier(games *config.GamesConfig) *KeywordClassifier {
	if games == nil {
		games = config.DefaultGames()
	}
	return &KeywordClassifier{games: games}
}

func (c *KeywordClassifier) IsGame(_ context.Context, p domain.ProcessRecord) bool {
	name := strings.ToLower(p.Name)
	title := strings.ToLower(p.WindowTitle)

	if c.games.IsExcluded(name) {
		return false
	}
	if c.games.IsKnownGame(name) {
		return true
	}
	return c.games.HasKeyword(name, title)
}

// AnyClassifier reports a game when any of its members does, asking them in order
type AnyClassifier []repository.Classifier

func (a AnyClassifier) IsGame(ctx context.Context, p domain.ProcessRecord) bool {
	for _, c := range a {
		if c.IsGame(ctx, p) {
			return true
		}
	}
	return false
}
