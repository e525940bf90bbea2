package validation

import "regexp"

var specialChars = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>\-_=+\[\]/;']`)

// HasSpecialChar reports whether s contains at least one punctuation character.
func HasSpecialChar(s string) bool {
	return specialChars.MatchString(s)
}
