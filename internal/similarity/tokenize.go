package similarity

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it into runs of letters, digits and
// underscores. Runs shorter than two runes and English stop words are dropped.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	start := -1
	runes := 0
	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			tok := text[start:end]
			if !IsStopWord(tok) {
				tokens = append(tokens, tok)
			}
		}
		start = -1
		runes = 0
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}
