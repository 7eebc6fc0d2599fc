package textclean

import (
	"math"
	"regexp"
	"strconv"
)

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// ToNumeric strips every character except digits, "." and "-" and parses the
// rest as a float64. Text that does not parse afterwards yields NaN, so
// "$1,234.5" becomes 1234.5 and "?" becomes NaN.
func ToNumeric(text string) float64 {
	v, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(text, ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
