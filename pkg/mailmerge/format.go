package mailmerge

import (
	"math/big"
	"regexp"
	"strings"
)

// plainDecimal matches an optionally signed decimal without exponent or
// digit grouping: "5", "-5.0", "+0.50", ".0", "5.".
var plainDecimal = regexp.MustCompile(`^([+-]?)(\d*)(?:\.(\d*))?$`)

// FormatValue normalises a cell value for substitution. A decimal whose
// value is a whole number is rendered as an integer ("5.0" becomes "5");
// every other input, including fractional numbers, is returned unchanged.
//
// Spreadsheets often store 5 as "5.0"; currency and other fractional data
// must not be touched.
func FormatValue(raw string) string {
	s := strings.TrimSpace(raw)
	m := plainDecimal.FindStringSubmatch(s)
	if m == nil {
		return raw
	}

	sign, whole, frac := m[1], m[2], m[3]
	if whole == "" && frac == "" {
		// "", "+", "-", "."
		return raw
	}
	if strings.Trim(frac, "0") != "" {
		return raw
	}

	if whole == "" {
		whole = "0"
	}
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return raw
	}
	if sign == "-" {
		n.Neg(n)
	}
	return n.String()
}
