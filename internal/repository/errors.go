package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned by single-record lookups. It is gorm's own sentinel so
// callers may match either name with errors.Is.
var ErrNotFound = gorm.ErrRecordNotFound

var ErrDuplicate = errors.New("record already exists")

// likePattern lowercases q and escapes LIKE wildcards for use with ESCAPE '!'.
func likePattern(q string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
