// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

// E.164: optional +, then up to 15 digits with no leading zero.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone strips formatting characters and reports whether what is
// left is a plausible international number. SMS notifications are sent to
// the normalized form.
func NormalizePhone(phone string) (string, bool) {
	cleaned := phoneNoise.Replace(strings.TrimSpace(phone))
	if !phonePattern.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	_, ok := NormalizePhone(phone)
	return ok
}
