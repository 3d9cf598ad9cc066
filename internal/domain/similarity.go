package domain

import (
	"math"
	"strings"
)

// CleanProcessName turns an executable name into a search term: the
// ".exe"/".app" suffix is dropped, the first separator becomes a space and
// the result is lower-cased.
func CleanProcessName(name string) string {
	n := name
	if strings.HasSuffix(n, ".exe") || strings.HasSuffix(n, ".app") {
		n = n[:len(n)-4]
	}
	if i := strings.IndexAny(n, "-_."); i >= 0 {
		n = n[:i] + " " + n[i+1:]
	}
	return strings.TrimSpace(strings.ToLower(n))
}

// LevenshteinDistance returns the edit distance between a and b, counted in runes
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j-1], prev[j], curr[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// NameMatchScore scores how well two lower-cased names agree, in [0,1]
func NameMatchScore(a, b string) float64 {
	if a == b {
		return 1
	}

	maxLen := math.Max(float64(len([]rune(a))), float64(len([]rune(b))))
	if maxLen == 0 {
		return 0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		lengthDiff := math.Abs(float64(len([]rune(a)) - len([]rune(b))))
		return math.Max(0.7, 1-lengthDiff/maxLen)
	}

	return math.Max(0, 1-float64(LevenshteinDistance(a, b))/maxLen)
}

// GamePopularity carries the catalogue signals used to break name ties
type GamePopularity struct {
	Metacritic   int
	Rating       float64
	RatingsCount int
	Added        int
}

// PopularityScore weighs critic score, user rating and library adds, in [0,1]
func PopularityScore(g GamePopularity) float64 {
	score := 0.0

	if g.Metacritic > 0 {
		score += float64(g.Metacritic) / 100 * 0.4
	}

	if g.Rating > 0 && g.RatingsCount > 0 {
		score += g.Rating / 5 * 0.3
	}

	if g.Added > 0 {
		addedScore := math.Min(math.Log10(float64(g.Added))/5, 1)
		score += addedScore * 0.3
	}

	return score
}

// IsLikelyGameMatch combines name and popularity scores for a catalogue hit
func IsLikelyGameMatch(searchName, gameName string, pop GamePopularity) bool {
	nameScore := NameMatchScore(searchName, strings.ToLower(gameName))

	if nameScore > 0.9 {
		return true
	}

	if nameScore > 0.6 {
		return nameScore*0.6+PopularityScore(pop)*0.4 > 0.7
	}

	return false
}
