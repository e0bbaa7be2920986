package domain

import (
	"strings"
	"unicode"
)

// Slugify lower-cases s and joins its alphanumeric runs with hyphens.
// "The Forest Hiker" becomes "the-forest-hiker".
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
