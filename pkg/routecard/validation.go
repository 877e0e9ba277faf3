package routecard

import (
	"regexp"
	"strings"
)

// Identifier formats carried over from the paper forms: account numbers are
// ММ-ННН/ГГ, cluster numbers are КГГ/ММ-ННН with a literal Cyrillic К.
var (
	accountNumberPattern = regexp.MustCompile(`^\d{2}-\d{3}/\d{2}$`)
	clusterNumberPattern = regexp.MustCompile(`^К\d{2}/\d{2}-\d{3}$`)
)

// serialWidth is the canonical width of a normalized serial.
const serialWidth = 6

// ValidAccountNumber reports whether s is a well-formed account number,
// e.g. "05-002/25". The whole string must match; no surrounding characters
// are tolerated.
func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

// ValidClusterNumber reports whether s is a well-formed cluster number,
// e.g. "К25/05-099".
func ValidClusterNumber(s string) bool {
	return clusterNumberPattern.MatchString(s)
}

// NormalizeSerial trims surrounding whitespace and validates s as a blank
// serial in the range [1, 999999]. On success it returns the serial
// zero-padded to six digits. Inputs longer than six characters are rejected
// even when the numeric value would be in range, matching how the intake
// forms treat over-wide entries.
func NormalizeSerial(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > serialWidth {
		return "", false
	}
	allZero := true
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
		if r != '0' {
			allZero = false
		}
	}
	if allZero {
		return "", false
	}
	return strings.Repeat("0", serialWidth-len(s)) + s, true
}
