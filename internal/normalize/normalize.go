// Package normalize canonicalizes free-text inventory attributes so values
// recorded by independent sources compare equal, and resolves the differently
// named upload columns onto canonical fields.
package normalize

import (
	"strings"
)

// entitySuffixes lists corporate entity suffixes stripped from manufacturer
// names. Longer suffixes come before their own tails (LLP before LP).
var entitySuffixes = []string{
	"CORPORATION",
	"LLC",
	"LLP",
	"INC",
	"LTD",
	"CORP",
	"PLC",
	"LP",
}

var modelPrefixes = []string{"MODEL", "MOD", "MDL"}

var typeNoise = []string{"FIREARMS", "FIREARM", "WEAPONS", "WEAPON"}

var caliberMarkers = []string{"CALIBER", "CAL"}

// Token uppercases s and drops every character outside A-Z and 0-9.
func Token(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Digits drops every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripLeadingZeros removes leading '0' characters so UPC-A and EAN-13
// renderings of the same code compare equal.
func StripLeadingZeros(d string) string {
	return strings.TrimLeft(d, "0")
}

// UPCKey is the lookup key for an identifier: its digits without leading
// zeros. An all-zero code keys as "0"; a code without digits keys as "".
func UPCKey(s string) string {
	d := Digits(s)
	if d == "" {
		return ""
	}
	if k := StripLeadingZeros(d); k != "" {
		return k
	}
	return "0"
}

// Manufacturer normalizes a manufacturer name and strips stacked corporate
// suffixes ("Xenon Corp LLC" -> "XENON"). A suffix is only removed while the token is
// at least two characters longer than it.
func Manufacturer(s string) string {
	t := Token(s)
	for {
		stripped := false
		for _, suf := range entitySuffixes {
			if len(t) >= len(suf)+2 && strings.HasSuffix(t, suf) {
				t = t[:len(t)-len(suf)]
				stripped = true
				break
			}
		}
		if !stripped {
			return t
		}
	}
}

// Model normalizes a model designation, dropping one leading MODEL, MOD or
// MDL marker from the token when something remains after it. "Model X100",
// "ModelX100" and "#Model-X100" all become "X100".
func Model(s string) string {
	t := Token(s)
	for _, p := range modelPrefixes {
		if len(t) > len(p) && strings.HasPrefix(t, p) {
			return t[len(p):]
		}
	}
	return t
}

// Type normalizes a product type, removing every FIREARM(S)/WEAPON(S) token.
func Type(s string) string {
	t := Token(s)
	for _, n := range typeNoise {
		t = strings.ReplaceAll(t, n, "")
	}
	return t
}

// Caliber normalizes a caliber so ".223", "Cal .223" and "223 Caliber" agree.
func Caliber(s string) string {
	t := Token(s)
	if len(t) > 1 && t[0] == '0' && isDigit(t[1]) {
		t = t[1:]
	}
	for _, m := range caliberMarkers {
		if len(t) > len(m) && strings.HasPrefix(t, m) {
			return t[len(m):]
		}
	}
	for _, m := range caliberMarkers {
		if len(t) > len(m) && strings.HasSuffix(t, m) {
			return t[:len(t)-len(m)]
		}
	}
	return t
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
