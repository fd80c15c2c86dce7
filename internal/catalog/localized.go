package catalog

import (
	"golang.org/x/text/language"
)

// Lang is a display language of the library.
type Lang string

const (
	Arabic  Lang = "ar"
	English Lang = "en"
)

// ParseLang maps a BCP 47 tag to a display language. Anything that is not
// Arabic reads as English.
func ParseLang(s string) Lang {
	tag, err := language.Parse(s)
	if err != nil {
		return English
	}
	if base, _ := tag.Base(); base.String() == "ar" {
		return Arabic
	}
	return English
}

// RTL reports whether the language is written right to left.
func (l Lang) RTL() bool { return l == Arabic }

// LocalizedField holds per-language variants of one value. Arabic is the
// canonical variant.
type LocalizedField[T comparable] map[Lang]T

// Resolve returns the first non-zero variant of lang, then English, then
// Arabic.
func (f LocalizedField[T]) Resolve(lang Lang) T {
	var zero T
	for _, l := range [...]Lang{lang, English, Arabic} {
		if v, ok := f[l]; ok && v != zero {
			return v
		}
	}
	return zero
}
