package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DisplayDateLayout renders dates as "Sun Jan 01 2023".
const DisplayDateLayout = "Mon Jan 02 2006"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDate accepts a calendar date or timestamp. Values without a zone are UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// ParseLeadingInt reads an optional sign followed by digits from the start of
// value and ignores whatever follows, so "30min" is 30 and "4.5" is 4.
func ParseLeadingInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	end := 0
	if end < len(value) && (value[end] == '+' || value[end] == '-') {
		end++
	}
	digits := end
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("no leading digits in %q", value)
	}
	return strconv.Atoi(value[:end])
}
