package locator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	hashPartMinLen = 7
	numericMinLen  = 5
)

var timestampPattern = regexp.MustCompile(`\d{10,}`)

// IsDynamicValue reports whether a class token, id or attribute value looks
// machine-generated: a hashed "_" segment, a long number, or an embedded timestamp.
func IsDynamicValue(value string) bool {
	if value == "" {
		return false
	}

	if strings.Contains(value, "_") {
		for _, part := range strings.Split(value, "_") {
			if utf8.RuneCountInString(part) >= hashPartMinLen && hasDigit(part) && hasLetter(part) {
				return true
			}
		}
	}

	if utf8.RuneCountInString(value) >= numericMinLen && allDigits(value) {
		return true
	}

	return timestampPattern.MatchString(value)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return s != ""
}
