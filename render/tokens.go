package render

import "unicode/utf8"

// charsPerToken is the character-to-token ratio used for estimates.
const charsPerToken = 4

// EstimateTokens approximates the token count of text as ceil(runes / 4).
// It is a cheap heuristic, not a tokenizer.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

// truncateRunes returns the first max runes of text.
func truncateRunes(text string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}
