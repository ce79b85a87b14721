// Package segment splits raw text into sentences and optionally compresses
// over-long sentences by extractive summarization before they are embedded.
package segment

import (
	"strings"
	"unicode"
)

// Abbreviations that end with a period without ending a sentence.
// Compared against the lowercased token preceding the period.
var abbreviations = map[string]struct{}{
	"e.g":    {},
	"i.e":    {},
	"etc":    {},
	"vs":     {},
	"cf":     {},
	"approx": {},
	"dept":   {},
	"min":    {},
	"yrs":    {},
	"mr":     {},
	"mrs":    {},
	"ms":     {},
	"dr":     {},
	"prof":   {},
	"jr":     {},
	"sr":     {},
	"st":     {},
	"no":     {},
	"inc":    {},
	"ltd":    {},
	"co":     {},
}

// Split segments text into sentences. It is a pure function of its input:
// finite, restartable, no hidden state.
//
// Boundaries are terminal punctuation (. ! ?) followed by whitespace and an
// upper-case letter or digit, plus blank-line breaks. Periods after known
// abbreviations do not break. The exact rule set is heuristic, not a
// correctness contract.
func Split(text string) []string {
	var sentences []string
	runes := []rune(text)

	flush := func(start, end int) int {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, s)
		}
		return end
	}

	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\n':
			// Newlines terminate sentences: job ads and CVs are full of
			// punctuation-free bullet lines.
			start = flush(start, i) + 1
		case '.', '!', '?':
			if runes[i] == '.' && isAbbreviation(runes[start:i]) {
				continue
			}
			// Consume runs like "?!" or "..."
			end := i + 1
			for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
				end++
			}
			if !boundaryFollows(runes, end) {
				i = end - 1
				continue
			}
			start = flush(start, end)
			i = end - 1
		}
	}
	flush(start, len(runes))

	return sentences
}

// isAbbreviation reports whether the text before a period ends in a known
// abbreviation.
func isAbbreviation(before []rune) bool {
	s := string(before)
	idx := strings.LastIndexFunc(s, unicode.IsSpace)
	word := strings.ToLower(strings.Trim(s[idx+1:], "(\"'"))
	if word == "" {
		return false
	}
	if _, ok := abbreviations[word]; ok {
		return true
	}
	// Single letters ("J. Smith") and dotted initialisms ("e.g.")
	if len([]rune(word)) == 1 && unicode.IsLetter([]rune(word)[0]) {
		return true
	}
	return false
}

// boundaryFollows reports whether the text after terminal punctuation looks
// like the start of a new sentence: whitespace, then an upper-case letter,
// digit or quote. Punctuation inside a token ("1.21", "node.js") never breaks.
func boundaryFollows(runes []rune, i int) bool {
	if i >= len(runes) {
		return true
	}
	if runes[i] != ' ' && runes[i] != '\t' && runes[i] != '\n' {
		return false
	}
	for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t') {
		i++
	}
	if i >= len(runes) || runes[i] == '\n' {
		return true
	}
	r := runes[i]
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '\''
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
