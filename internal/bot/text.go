package bot

import (
	"strings"
	"unicode/utf16"
)

var spamKeywords = []string{"casino", "porn", "sex", "viagra", "lottery", "free money", "bitcoin generator"}

const spamSpecialChars = `!@#$%^&*()_+={}[]|\:;'<>,.?/`

// isSpam flags known spam keywords, or text that is more than 30% punctuation.
func isSpam(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	var total, special int
	for _, r := range text {
		total++
		if strings.ContainsRune(spamSpecialChars, r) {
			special++
		}
	}
	return total > 0 && float64(special)/float64(total) > 0.3
}

// isCancel matches the phrases that abort a free-text prompt.
func isCancel(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "cancel", "/cancel", "❌ cancel", strings.ToLower(btnCancelReq):
		return true
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// utf16Len is the length of s as Telegram measures it.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
