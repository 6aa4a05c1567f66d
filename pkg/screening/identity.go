package screening

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidName reports whether name looks like a full name: at least two
// space-separated parts, each starting with a letter.
func ValidName(name string) bool {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		r := []rune(p)[0]
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// NormalizePhone validates raw as a North American phone number and returns
// it formatted as (NXX) NXX-XXXX. It accepts 10 digits, or 11 with a leading
// country code 1, with any punctuation. Area code and exchange must not start
// with 0 or 1.
func NormalizePhone(raw string) (string, bool) {
	var digits []rune
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", false
	}
	if digits[0] == '0' || digits[0] == '1' || digits[3] == '0' || digits[3] == '1' {
		return "", false
	}
	s := string(digits)
	return fmt.Sprintf("(%s) %s-%s", s[0:3], s[3:6], s[6:10]), true
}
