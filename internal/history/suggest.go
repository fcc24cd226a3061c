package history

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Confidence levels for fuzzy matches.
const (
	ConfidenceNone   MatchConfidence = iota // Score < 0.70
	ConfidenceLow                           // Score >= 0.70
	ConfidenceMedium                        // Score >= 0.85
	ConfidenceHigh                          // Score >= 0.95
)

// MatchConfidence represents how close a suggestion is to the query.
type MatchConfidence int

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

func confidenceFor(score float64) MatchConfidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Match is a log entry similar to a query.
type Match struct {
	Entry      Entry           `json:"entry"`
	Score      float64         `json:"score"`
	Confidence MatchConfidence `json:"confidence"`
}

// Suggest returns up to limit entries whose names resemble query, best first.
// Names are compared after NormalizeTitle using Jaro-Winkler similarity;
// entries below low confidence are dropped. A limit <= 0 returns all matches.
func (l *Log) Suggest(query string, limit int) ([]Match, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	return rank(query, entries, limit), nil
}

func rank(query string, entries []Entry, limit int) []Match {
	q := NormalizeTitle(query)
	if q == "" {
		return nil
	}

	seen := make(map[string]bool, len(entries))
	var matches []Match
	for _, e := range entries {
		name := NormalizeTitle(e.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		score := float64(edlib.JaroWinklerSimilarity(q, name))
		if strings.Contains(name, q) {
			score = max(score, 0.95)
		}
		if c := confidenceFor(score); c != ConfidenceNone {
			matches = append(matches, Match{Entry: e, Score: score, Confidence: c})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// NormalizeTitle lowercases a title, strips accents and punctuation, and
// collapses whitespace. File extensions are not removed.
func NormalizeTitle(title string) string {
	s := strings.ToLower(title)
	s = removeAccents(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
