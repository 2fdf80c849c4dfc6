package stats

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// inputDateLayout is the format admins type custom period borders in.
const inputDateLayout = "02-01-2006"

// OutputDateLayout renders period borders back to the admin.
const OutputDateLayout = "02/01/2006"

var spaceRe = regexp.MustCompile(`\s+`)

// ParseCustomRange parses two dd-mm-yyyy dates separated by whitespace and
// order-normalizes them: the smaller date becomes the range start.
func ParseCustomRange(text string) (from, to time.Time, err error) {
	parts := strings.Split(strings.TrimSpace(spaceRe.ReplaceAllString(text, " ")), " ")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("stats: expected two dates, got %d", len(parts))
	}
	first, err := time.ParseInLocation(inputDateLayout, parts[0], time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("stats: parse %q: %w", parts[0], err)
	}
	second, err := time.ParseInLocation(inputDateLayout, parts[1], time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("stats: parse %q: %w", parts[1], err)
	}
	if second.Before(first) {
		first, second = second, first
	}
	return first, second, nil
}
