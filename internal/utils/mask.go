package utils

import "strings"

// MaskEmail partially hides the local part of an email for display:
// first and last character kept, domain untouched. Local parts of two
// characters or fewer keep only the first.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	runes := []rune(local)
	if len(runes) <= 2 {
		return string(runes[0]) + "***@" + domain
	}
	return string(runes[0]) + "***" + string(runes[len(runes)-1]) + "@" + domain
}
