package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactName masks a customer name, keeping only the first rune.
// "Tanaka Hana" → "T***"
func RedactName(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) == 0 {
		return "***"
	}
	return string(r[0]) + "***"
}
