package domain

import (
	"strconv"
	"strings"
)

// ID is the parse result for a record identifier that arrived as text, from
// callback data or a URL segment. Malformed input yields Valid == false so
// callers can treat it like a missing record while still logging the difference.
type ID struct {
	Value uint
	Valid bool
	Raw   string
}

func ParseID(raw string) ID {
	s := strings.TrimSpace(raw)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return ID{Raw: raw}
	}
	return ID{Value: uint(n), Valid: true, Raw: raw}
}

func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
