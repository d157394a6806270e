// internal/eni/number.go
package eni

import (
	"errors"
	"strconv"
	"strings"
)

var errEmptyNumber = errors.New("empty number")

// ParseNumber parses a descriptor numeric in the spellings observed
// across vendor tools: plain decimal, 0x-prefixed hex, #x-prefixed hex
// and bare x-prefixed hex. Surrounding spaces and quotes are tolerated.
func ParseNumber(s string) (uint64, error) {
	t := strings.Trim(s, " \t\"")
	if t == "" {
		return 0, errEmptyNumber
	}
	switch {
	case t[0] == '#':
		t = t[1:]
		if len(t) > 0 && (t[0] == 'x' || t[0] == 'X') {
			t = t[1:]
		}
		return strconv.ParseUint(t, 16, 64)
	case len(t) > 2 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X'):
		return strconv.ParseUint(t[2:], 16, 64)
	case t[0] == 'x' || t[0] == 'X':
		return strconv.ParseUint(t[1:], 16, 64)
	default:
		return strconv.ParseUint(t, 10, 64)
	}
}
