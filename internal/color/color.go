// Package color classifies and normalizes the color values that appear in
// Android resource files.
//
// Hex literals use Android's alpha-first ordering: #RGB, #ARGB, #RRGGBB and
// #AARRGGBB. Every literal normalizes to the 8-digit #AARRGGBB form with
// upper-case digits, so alpha-equivalent spellings compare equal.
package color

import "strings"

const (
	// LiteralPrefix marks a hex color literal.
	LiteralPrefix = "#"

	// SystemReferencePrefix marks a color taken from the Android framework
	// rather than from the project's palette.
	SystemReferencePrefix = "@android:color/"

	// PaletteReferencePrefix is what fixes rewrite hardcoded colors to.
	PaletteReferencePrefix = "@color/"
)

// Canonical is a normalized #AARRGGBB color. The zero value is not a color.
type Canonical string

// String returns the canonical text form.
func (c Canonical) String() string { return string(c) }

// Normalize maps a hex color literal to its canonical form. It reports false
// for anything that is not exactly a '#' followed by 3, 4, 6 or 8 hex digits.
func Normalize(raw string) (Canonical, bool) {
	if !IsLiteral(raw) {
		return "", false
	}
	digits := strings.ToUpper(raw[len(LiteralPrefix):])

	var b strings.Builder
	b.Grow(9)
	b.WriteString(LiteralPrefix)
	switch len(digits) {
	case 3:
		b.WriteString("FF")
		expandShorthand(&b, digits)
	case 4:
		expandShorthand(&b, digits)
	case 6:
		b.WriteString("FF")
		b.WriteString(digits)
	case 8:
		b.WriteString(digits)
	}
	return Canonical(b.String()), true
}

func expandShorthand(b *strings.Builder, digits string) {
	for i := 0; i < len(digits); i++ {
		b.WriteByte(digits[i])
		b.WriteByte(digits[i])
	}
}

// IsLiteral reports whether raw is a hex color literal of an accepted width.
func IsLiteral(raw string) bool {
	if !strings.HasPrefix(raw, LiteralPrefix) {
		return false
	}
	digits := raw[len(LiteralPrefix):]
	switch len(digits) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return false
		}
	}
	return true
}

// IsSystemReference reports whether raw references a framework color.
func IsSystemReference(raw string) bool {
	return strings.HasPrefix(raw, SystemReferencePrefix)
}

// IsCandidate reports whether raw is a color usage worth recording.
func IsCandidate(raw string) bool {
	return IsLiteral(raw) || IsSystemReference(raw)
}

// PaletteReference returns the resource reference for a palette entry name.
func PaletteReference(name string) string {
	return PaletteReferencePrefix + name
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
