package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for account fields.
const (
	maxNameLen     = 100
	maxEmailLen    = 254
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
)

// validateRegistration checks register inputs and returns the first error
// found. name and email are expected trimmed.
func validateRegistration(name, email, password, password2 string) string {
	if name == "" || email == "" || password == "" {
		return "Fill in all fields."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 100 characters)."
	}
	if len(email) > maxEmailLen || !looksLikeEmail(email) {
		return "Enter a valid email address."
	}
	if len(strings.TrimSpace(password)) < minPasswordLen {
		return "Password should be at least 6 characters."
	}
	if len(password) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	if password != password2 {
		return "Passwords do not match."
	}
	return ""
}

// looksLikeEmail is a shape check only: one @ with text on both sides and a
// dot in the domain.
func looksLikeEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1 && !strings.ContainsAny(s, " \t\r\n")
}
