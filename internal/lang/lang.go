// Package lang guesses the language of a short query so answers can be
// rendered in kind. It is a coarse stop-word heuristic, good enough for
// routing, not for classification.
package lang

import "strings"

type Language string

const (
	English Language = "en"
	Dutch   Language = "nl"
	Spanish Language = "es"
)

var markers = map[Language][]string{
	Dutch: {
		"de", "het", "een", "van", "en", "ik", "je", "niet", "wat", "hoe",
		"waarom", "welke", "zijn", "wordt", "voor", "met", "naar", "deze",
	},
	Spanish: {
		"el", "la", "los", "las", "un", "una", "de", "que", "como", "por",
		"para", "donde", "cuando", "cual", "es", "son", "con", "este",
	},
	English: {
		"the", "a", "an", "of", "and", "is", "are", "what", "how", "why",
		"which", "this", "that", "for", "with", "to", "in", "on",
	},
}

// Detect counts stop-word hits per language over whitespace-split tokens.
// Ties resolve to the first language in iteration order; English wins when
// nothing scores.
func Detect(text string) Language {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return English
	}
	seen := make(map[string]int, len(words))
	for _, w := range words {
		seen[strings.Trim(w, ".,!?¿¡:;\"'()")]++
	}
	best := English
	bestScore := 0
	for _, l := range []Language{English, Dutch, Spanish} {
		score := 0
		for _, m := range markers[l] {
			score += seen[m]
		}
		if score > bestScore {
			best = l
			bestScore = score
		}
	}
	return best
}
