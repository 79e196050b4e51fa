package service

import "strings"

// NormalizeEmail is applied to every email before it is stored or looked up,
// so uniqueness and lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
