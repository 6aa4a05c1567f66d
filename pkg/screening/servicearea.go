package screening

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// AreaMatch classifies how well a spoken location matched the service areas.
type AreaMatch int

const (
	// AreaMatchNone means the location is clearly outside the service area.
	AreaMatchNone AreaMatch = iota
	// AreaMatchClose means the location nearly matches one area; the caller
	// should be asked to confirm before the screening branches on it.
	AreaMatchClose
	// AreaMatchExact means the location is a served area.
	AreaMatchExact
)

// MatchServiceArea matches a spoken location against the configured service
// areas. Matching ignores case and punctuation and tolerates dropped
// "county"/"city of" qualifiers ("Henry" matches "Henry County"). A small
// edit distance yields a close match so transcription slips like "Hennry"
// get a confirming reprompt instead of a referral.
func MatchServiceArea(location string, areas []string) (string, AreaMatch) {
	loc := normalizeArea(location)
	if loc == "" {
		return "", AreaMatchNone
	}

	for _, area := range areas {
		if normalizeArea(area) == loc {
			return area, AreaMatchExact
		}
	}

	best := ""
	bestDist := -1
	for _, area := range areas {
		d := levenshtein.DistanceForStrings([]rune(loc), []rune(normalizeArea(area)), levenshtein.DefaultOptions)
		if bestDist < 0 || d < bestDist {
			best, bestDist = area, d
		}
	}
	if bestDist >= 0 && bestDist <= 2 {
		return best, AreaMatchClose
	}
	return "", AreaMatchNone
}

// normalizeArea lowercases, strips punctuation, and drops the qualifier
// tokens that callers routinely omit.
func normalizeArea(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		switch tok {
		case "county", "city", "of", "the":
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
