package payments

import "strings"

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return ""
	}
	return local[:1] + strings.Repeat("*", max(len(local)-1, 1)) + "@" + domain
}

// RedactTokens masks customer emails unless the caller may see them.
func RedactTokens(tokens []Token, reveal bool) {
	if reveal {
		return
	}
	for i := range tokens {
		tokens[i].CustomerEmail = MaskEmail(tokens[i].CustomerEmail)
	}
}
