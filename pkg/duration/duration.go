// Package duration parses and formats retention-style durations. It accepts
// everything time.ParseDuration does plus "d" (days) and "w" (weeks).
//
// Examples: "180d", "2w", "1w2d12h", "720h".
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Day represents 24 hours.
	Day = 24 * time.Hour
	// Week represents 7 days.
	Week = 7 * Day
)

var calendarUnit = regexp.MustCompile(`(\d+)([dw])`)

// Parse parses s. Day and week components are converted to hours before
// the remainder is handed to time.ParseDuration.
func Parse(s string) (time.Duration, error) {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var hours int64
	rest := calendarUnit.ReplaceAllStringFunc(s, func(m string) string {
		parts := calendarUnit.FindStringSubmatch(m)
		n, _ := strconv.ParseInt(parts[1], 10, 64)
		if parts[2] == "w" {
			n *= 7
		}
		hours += n * 24
		return ""
	})

	var d time.Duration
	if rest != "" {
		parsed, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("duration: %w", err)
		}
		d = parsed
	}
	d += time.Duration(hours) * time.Hour

	if negative {
		d = -d
	}
	return d, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders d using weeks and days where possible, e.g. 9 days is
// "1w2d" and 36 hours is "1d12h0m0s".
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}

	weeks := d / Week
	d -= weeks * Week
	days := d / Day
	d -= days * Day

	if weeks > 0 {
		fmt.Fprintf(&b, "%dw", weeks)
	}
	if days > 0 {
		fmt.Fprintf(&b, "%dd", days)
	}
	if d > 0 {
		b.WriteString(d.String())
	}
	return b.String()
}
