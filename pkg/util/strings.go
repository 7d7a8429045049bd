package util

import (
	"strconv"
	"strings"
)

// ParseNumber reads a number as printed on a web page: thousands separators,
// a trailing percent sign and surrounding whitespace are ignored.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
