// Package matching scores candidate golden environments against a result
// environment and selects the closest baseline.
package matching

import (
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/abaire/pgraph-compare/internal/hostenv"
)

// Scoring weights. The renderer family bit dominates every other criterion:
// a same-family candidate always outranks a cross-family one no matter how
// well the remaining fields match.
const (
	rendererFamilyBonus = 500000

	osArchPerChar    = 100
	osArchExactBonus = 100000

	versionPerChar    = 50
	versionExactBonus = 500
)

// ErrNoCandidates is returned by Best when the candidate pool is empty.
var ErrNoCandidates = errors.New("no golden candidates to match against")

// Score rates candidate as a baseline for target. The scoring is defined for
// directed target-to-candidate comparison; the current terms all happen to be
// symmetric.
func Score(target, candidate *hostenv.Environment) int {
	score := 0

	if target.Renderer == candidate.Renderer {
		score += rendererFamilyBonus
	}

	score += prefixScore(target.OSArchKey, candidate.OSArchKey, osArchPerChar, osArchExactBonus)
	score += prefixScore(target.ShadingLanguageKey, candidate.ShadingLanguageKey, versionPerChar, versionExactBonus)
	score += prefixScore(target.APIKey, candidate.APIKey, versionPerChar, versionExactBonus)

	return score
}

// prefixScore awards perChar for every matching leading character, stopping
// at the first mismatch. Fully equal strings additionally receive exactBonus
// on top of the full per-character credit. Characters are runes, so a
// multibyte segment never earns partial credit mid-character.
func prefixScore(a, b string, perChar, exactBonus int) int {
	if a == b {
		return utf8.RuneCountInString(a)*perChar + exactBonus
	}

	runesA := []rune(a)
	runesB := []rune(b)

	score := 0
	for i := 0; i < len(runesA) && i < len(runesB); i++ {
		if runesA[i] != runesB[i] {
			break
		}
		score += perChar
	}

	return score
}

// Matcher selects the best golden baseline for a result environment.
type Matcher struct {
	log logrus.FieldLogger
}

// NewMatcher creates a baseline matcher.
func NewMatcher(log logrus.FieldLogger) *Matcher {
	return &Matcher{
		log: log.WithField("component", "baseline_matcher"),
	}
}

// Best returns the path and environment of the highest-scoring candidate.
// Candidates are visited in sorted path order so that exact ties resolve
// reproducibly to the first maximum encountered.
func (m *Matcher) Best(
	target *hostenv.Environment,
	candidates map[string]*hostenv.Environment,
) (string, *hostenv.Environment, error) {
	if len(candidates) == 0 {
		return "", nil, ErrNoCandidates
	}

	paths := make([]string, 0, len(candidates))
	for path := range candidates {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	bestScore := -1
	bestPath := ""

	for _, path := range paths {
		score := Score(target, candidates[path])
		m.log.WithFields(logrus.Fields{
			"candidate": path,
			"score":     score,
		}).Debug("scored golden candidate")

		if score > bestScore {
			bestScore = score
			bestPath = path
		}
	}

	m.log.WithFields(logrus.Fields{
		"candidate": bestPath,
		"score":     bestScore,
	}).Info("selected golden baseline")

	return bestPath, candidates[bestPath], nil
}
