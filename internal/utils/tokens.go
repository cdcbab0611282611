package utils

// charsPerToken is the rough ratio used to size prompts against a model's
// context window. Dataset summaries are mostly ASCII so it holds well enough.
const charsPerToken = 4

// CountTokens estimates the number of tokens in text. Any non-empty text
// counts as at least one token.
func CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return max(n/charsPerToken, 1)
}

// TruncateToTokenLimit cuts text so that CountTokens(result) <= limit.
// Truncation happens on rune boundaries.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if n := limit * charsPerToken; n < len(runes) {
		return string(runes[:n])
	}
	return text
}
