package team

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first rune of s. Names arrive lowercased from
// speech recognition, so display paths capitalize them.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// JoinNames joins "Last First" display names with commas, in roster order as
// given. Members without a last name render as just the first name.
func JoinNames(people []Person) string {
	names := make([]string, 0, len(people))
	for _, p := range people {
		if p.LastName != "" {
			names = append(names, Capitalize(p.LastName)+" "+Capitalize(p.FirstName))
		} else {
			names = append(names, Capitalize(p.FirstName))
		}
	}
	return strings.Join(names, ", ")
}
