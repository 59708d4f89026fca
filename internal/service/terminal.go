package service

import "strings"

// TerminalClassifier reports whether a bot message means no more results are
// coming for the current query. Matching is best-effort; a miss leaves the
// query marked as searching.
type TerminalClassifier func(text string) bool

// DefaultTerminalPhrases are the backend phrasings that end a search
var DefaultTerminalPhrases = []string{
	"sorry",
	"couldn't interpret",
	"provide exactly 3 keywords",
	"scraping failed",
	"no products found",
	"session closed",
	"goodbye",
	"interest you",
	"more options",
}

// NewTerminalClassifier matches text case-insensitively against any of phrases.
// Blank phrases are ignored.
func NewTerminalClassifier(phrases []string) TerminalClassifier {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return func(text string) bool {
		text = strings.ToLower(text)
		for _, p := range lowered {
			if strings.Contains(text, p) {
				return true
			}
		}
		return false
	}
}
