// Package timecode converts human time notations into seconds.
//
// Supported notations, in priority order:
//
//	"1h", "1h07", "2H30", "1h11.30"  hour marker, optional minutes[.seconds]
//	"1:30:45", "1:30"                colon separated H:M:S or M:S
//	"1.00.00", "19.30"               dot separated H.M.S or M.S
//	"90"                             plain seconds (or minutes when requested)
package timecode

import (
	"math"
	"strconv"
	"strings"

	"github.com/soundgrab/soundgrab/internal/errs"
)

// ListSeparator splits a composite request such as "19.30;36.30;1h21"
const ListSeparator = ";"

const (
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// Parse converts a single timecode string into seconds. When defaultMinutes is
// true a bare number is interpreted as minutes instead of seconds.
func Parse(text string, defaultMinutes bool) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, &errs.ParseError{Input: text, Reason: "empty timecode"}
	}

	switch {
	case strings.ContainsAny(trimmed, "hH"):
		return parseHourNotation(trimmed)
	case strings.Contains(trimmed, ":"):
		return parseSeparated(trimmed, ":")
	case strings.Contains(trimmed, "."):
		if seconds, ok, err := parseDotted(trimmed); ok {
			return seconds, err
		}
		fallthrough
	default:
		return parsePlain(trimmed, defaultMinutes)
	}
}

// ParseList parses a composite request split on ";". The whole request fails
// on the first invalid component; no partial list is returned.
func ParseList(text string, defaultMinutes bool) ([]float64, error) {
	parts := strings.Split(text, ListSeparator)
	seconds := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := Parse(part, defaultMinutes)
		if err != nil {
			return nil, err
		}
		seconds = append(seconds, value)
	}
	return seconds, nil
}

// parseHourNotation handles "1h", "1h07" and "1h11.30" style inputs. The input
// is split once on the hour marker; anything after it is minutes, optionally
// followed by a dot or colon separated seconds field.
func parseHourNotation(text string) (float64, error) {
	idx := strings.IndexAny(text, "hH")
	left, right := text[:idx], text[idx+1:]

	hours, err := parseComponent(left, text)
	if err != nil {
		return 0, err
	}

	var minutes, seconds float64
	if right != "" {
		if sep := strings.IndexAny(right, ".:"); sep >= 0 {
			minutes, err = parseComponent(right[:sep], text)
			if err != nil {
				return 0, err
			}
			seconds, err = parseComponent(right[sep+1:], text)
			if err != nil {
				return 0, err
			}
		} else {
			minutes, err = parseComponent(right, text)
			if err != nil {
				return 0, err
			}
		}
	}

	return hours*secondsPerHour + minutes*secondsPerMinute + seconds, nil
}

// parseSeparated handles colon notation: exactly three parts are H:M:S, two
// are M:S, anything else is malformed.
func parseSeparated(text, sep string) (float64, error) {
	parts := strings.Split(text, sep)
	switch len(parts) {
	case 3:
		return combine(parts[0], parts[1], parts[2], text)
	case 2:
		return combine("", parts[0], parts[1], text)
	default:
		return 0, &errs.ParseError{Input: text, Reason: "expected M" + sep + "S or H" + sep + "M" + sep + "S"}
	}
}

// parseDotted handles dot notation. Unlike colons, a dot count other than one
// or two falls back to plain float parsing (ok=false), because a lone dot may
// just be a decimal point.
func parseDotted(text string) (float64, bool, error) {
	parts := strings.Split(text, ".")
	switch len(parts) {
	case 3:
		seconds, err := combine(parts[0], parts[1], parts[2], text)
		return seconds, true, err
	case 2:
		seconds, err := combine("", parts[0], parts[1], text)
		return seconds, true, err
	default:
		return 0, false, nil
	}
}

func parsePlain(text string, defaultMinutes bool) (float64, error) {
	value, err := parseComponent(text, text)
	if err != nil {
		return 0, err
	}
	if defaultMinutes {
		value *= secondsPerMinute
	}
	return value, nil
}

func combine(hourPart, minutePart, secondPart, whole string) (float64, error) {
	var hours float64
	var err error
	if hourPart != "" {
		hours, err = parseComponent(hourPart, whole)
		if err != nil {
			return 0, err
		}
	}
	minutes, err := parseComponent(minutePart, whole)
	if err != nil {
		return 0, err
	}
	seconds, err := parseComponent(secondPart, whole)
	if err != nil {
		return 0, err
	}
	return hours*secondsPerHour + minutes*secondsPerMinute + seconds, nil
}

// parseComponent parses one numeric field, enforcing the finite non-negative
// invariant on every component.
func parseComponent(part, whole string) (float64, error) {
	trimmed := strings.TrimSpace(part)
	if trimmed == "" {
		return 0, &errs.ParseError{Input: whole, Reason: "empty component"}
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, &errs.ParseError{Input: whole, Reason: "non-numeric component " + strconv.Quote(trimmed)}
	}
	if value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, &errs.ParseError{Input: whole, Reason: "component out of range"}
	}
	return value, nil
}
