// Package textnorm folds Vietnamese (and other Latin-script) text to plain ASCII
// for use in lookup keys and filenames.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ/Đ are base letters, not combining sequences, so NFD leaves them alone.
var letterReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// StripDiacritics removes combining marks: "Nguyễn Văn Đức" -> "Nguyen Van Duc".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, letterReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Key folds a column header into snake-case lookup form: "Họ tên" -> "ho_ten".
func Key(s string) string {
	s = strings.ToLower(strings.TrimSpace(StripDiacritics(s)))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.':
			return '_'
		}
		return r
	}, s)
}
