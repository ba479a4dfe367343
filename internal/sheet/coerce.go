// Package sheet parses matrix-shaped tour spreadsheet snapshots into fight blocks.
package sheet

import (
	"strconv"
	"strings"
)

var numericCleaner = strings.NewReplacer(
	"−", "-", // Unicode minus
	" ", "", // non-breaking space
)

// CoerceInt coerces a raw sheet cell into an integer.
//
// The exports use blanks for zero and occasionally include non-breaking
// spaces, a Unicode minus, or a comma decimal separator. Anything that still
// cannot be parsed degrades to zero so a single malformed cell never aborts
// the whole sheet.
func CoerceInt(value string) int {
	if value == "" {
		return 0
	}
	cleaned := strings.TrimSpace(numericCleaner.Replace(value))
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return 0
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", "."), 64); err == nil {
		return int(f)
	}
	return 0
}
