// Package cron persists and fires scheduled jobs. Expressions accept 5, 6,
// or 7 fields: classic crontab, with-seconds, and with-seconds-and-year.
package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// specParser accepts second-granularity expressions without the optional
// descriptor forms.
var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// NormalizeExpression canonicalizes a cron expression. 5-field input is
// promoted to 6 fields by prepending "0" for seconds; 6- and 7-field input
// passes through verbatim; anything else is rejected.
func NormalizeExpression(expr string) (string, error) {
	fields := strings.Fields(expr)
	switch len(fields) {
	case 5:
		return "0 " + strings.Join(fields, " "), nil
	case 6, 7:
		return strings.Join(fields, " "), nil
	default:
		return "", fmt.Errorf("cron expression needs 5, 6, or 7 fields, got %d in %q", len(fields), expr)
	}
}

// NextAfter computes the first firing time strictly after t for a normalized
// expression. For 7-field expressions the trailing year field filters the
// candidates produced by the 6-field schedule; an expression whose year
// constraint has no future firing is an error.
func NextAfter(normalized string, t time.Time) (time.Time, error) {
	fields := strings.Fields(normalized)

	var yearField string
	if len(fields) == 7 {
		yearField = fields[6]
		fields = fields[:6]
	}

	schedule, err := specParser.Parse(strings.Join(fields, " "))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", normalized, err)
	}

	next := schedule.Next(t)
	if yearField == "" || yearField == "*" {
		if next.IsZero() {
			return time.Time{}, fmt.Errorf("cron expression %q has no future firing", normalized)
		}
		return next, nil
	}

	// Walk candidates until one lands in an allowed year. Bail once we pass
	// the highest year the field can match.
	maxYear, err := maxAllowedYear(yearField)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year field %q: %w", yearField, err)
	}
	for !next.IsZero() && next.Year() <= maxYear {
		ok, err := yearMatches(yearField, next.Year())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid year field %q: %w", yearField, err)
		}
		if ok {
			return next, nil
		}
		// Skip ahead to the start of the next year instead of stepping one
		// firing at a time through a year that can never match.
		next = schedule.Next(time.Date(next.Year()+1, 1, 1, 0, 0, 0, 0, next.Location()).Add(-time.Second))
	}
	return time.Time{}, fmt.Errorf("cron expression %q has no future firing", normalized)
}

// yearMatches evaluates a crontab-style year field (*, values, lists,
// ranges, steps) against a concrete year.
func yearMatches(field string, year int) (bool, error) {
	for _, part := range strings.Split(field, ",") {
		step := 1
		if i := strings.IndexByte(part, '/'); i >= 0 {
			s, err := strconv.Atoi(part[i+1:])
			if err != nil || s < 1 {
				return false, fmt.Errorf("bad step in %q", part)
			}
			step = s
			part = part[:i]
		}

		lo, hi, err := yearRange(part)
		if err != nil {
			return false, err
		}
		if year >= lo && year <= hi && (year-lo)%step == 0 {
			return true, nil
		}
	}
	return false, nil
}

// yearRange parses one range component: "*", "2030", or "2030-2035".
func yearRange(part string) (int, int, error) {
	if part == "*" {
		return 0, 9999, nil
	}
	if i := strings.IndexByte(part, '-'); i >= 0 {
		lo, err := strconv.Atoi(part[:i])
		if err != nil {
			return 0, 0, fmt.Errorf("bad year %q", part[:i])
		}
		hi, err := strconv.Atoi(part[i+1:])
		if err != nil {
			return 0, 0, fmt.Errorf("bad year %q", part[i+1:])
		}
		if hi < lo {
			return 0, 0, fmt.Errorf("inverted year range %q", part)
		}
		return lo, hi, nil
	}
	y, err := strconv.Atoi(part)
	if err != nil {
		return 0, 0, fmt.Errorf("bad year %q", part)
	}
	return y, y, nil
}

// maxAllowedYear returns the highest year the field can ever match, bounding
// the candidate walk in NextAfter.
func maxAllowedYear(field string) (int, error) {
	max := 0
	for _, part := range strings.Split(field, ",") {
		if i := strings.IndexByte(part, '/'); i >= 0 {
			part = part[:i]
		}
		_, hi, err := yearRange(part)
		if err != nil {
			return 0, err
		}
		if hi > max {
			max = hi
		}
	}
	return max, nil
}
