package timeparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// layouts are tried in order; the ones without a zone are read as UTC
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// minMillisDigits keeps short numbers such as a bare year off the unix milliseconds path
const minMillisDigits = 10

// Parse reads a client supplied instant. It accepts RFC3339 with or without
// fractional seconds, ISO dates and date-times without a zone, a year or
// year-month, and unix milliseconds of at least ten digits.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if len(value) >= minMillisDigits {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", value, lastErr)
}

// ParseRange parses both bounds of a time range
func ParseRange(from, to string) (time.Time, time.Time, error) {
	start, err := Parse(from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	end, err := Parse(to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	return start, end, nil
}
