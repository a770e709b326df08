// Package laptime converts lap times between their display form (MM:SS.mmm) and seconds.
package laptime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse returns the number of seconds represented by v. ok is false when v is absent,
// blank or malformed; callers should treat that as "no lap time", not as an error.
//
// Accepted strings are "M:SS.mmm" (any number of minutes, one colon) and a bare number of
// seconds. Anything with more than one colon is rejected.
func Parse(v Value) (seconds float64, ok bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		return ParseString(v.Text)
	default:
		return 0, false
	}
}

// ParseString is Parse for a raw string.
func ParseString(s string) (seconds float64, ok bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")

	switch len(parts) {
	case 1:
		return parseNumber(parts[0])
	case 2:
		minutes, ok := parseNumber(parts[0])

		if !ok {
			return 0, false
		}

		secs, ok := parseNumber(parts[1])

		if !ok {
			return 0, false
		}

		return minutes*60 + secs, true
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	// strconv accepts hex floats, timing exports never write them
	if strings.ContainsAny(s, "xXpP") {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)

	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// Format renders seconds as MM:SS.mmm. Minutes are padded to two digits but never
// truncated, so two hours renders as "120:00.000". The value is rounded to the nearest
// millisecond before it is split, which keeps 59.9996 from rendering as "00:60.000".
// Negative input is clamped to zero. The split is done in float64 so that values
// past the int64 millisecond range still render with non-negative parts.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	if scaled := seconds * 1000; !math.IsInf(scaled, 0) {
		seconds = math.Round(scaled) / 1000
	}

	minutes := math.Floor(seconds / 60)
	remainder := seconds - minutes*60

	// at large magnitudes the subtraction loses the sub-minute part entirely
	if remainder < 0 || remainder >= 60 {
		remainder = 0
	} else if remainder >= 59.9995 {
		minutes++
		remainder = 0
	}

	return fmt.Sprintf("%02.0f:%06.3f", minutes, remainder)
}

// FormatOptional is Format for an optional number of seconds, nil in gives nil out.
func FormatOptional(seconds *float64) *string {
	if seconds == nil {
		return nil
	}

	formatted := Format(*seconds)

	return &formatted
}
