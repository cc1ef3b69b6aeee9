package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnknownVariant is returned when a variant name is not in the rules table
var ErrUnknownVariant = errors.New("unknown variant")

// formatCodeRegex matches section-sign formatting codes like §a, §l, §r
var formatCodeRegex = regexp.MustCompile(`§[0-9a-fk-orA-FK-OR]`)

// CleanText removes formatting codes and surrounding whitespace from a
// chat or scoreboard line
func CleanText(s string) string {
	return strings.TrimSpace(formatCodeRegex.ReplaceAllString(s, ""))
}
