package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Exported dumps format amounts as "1.234,56-": dot as thousands separator,
// comma as decimal mark, sign trailing when negative.

// ParseAmount parses one SAP formatted amount.
func ParseAmount(val string) (float64, error) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch {
	case strings.HasSuffix(s, "-"):
		negative = true
		s = strings.TrimSuffix(s, "-")
	case strings.HasPrefix(s, "-"):
		negative = true
		s = strings.TrimPrefix(s, "-")
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", val, err)
	}
	if negative {
		parsed = -parsed
	}
	return parsed, nil
}

// ParseOptionalAmount parses an amount column that may be blank. A blank
// value yields nil.
func ParseOptionalAmount(val string) (*float64, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	parsed, err := ParseAmount(val)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// sapDateLayouts cover the day-first forms the exports use.
var sapDateLayouts = []string{"02.01.2006", "2.1.2006", "02/01/2006", "02-01-2006"}

// ParseDate parses a day-first SAP date. Blank or unparseable values yield
// the zero time, matching how open or missing dates flow through the data.
func ParseDate(val string) time.Time {
	s := strings.TrimSpace(val)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range sapDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d
		}
	}
	return time.Time{}
}

// isolateLines extracts the data rows of a raw dump. Every line matching the
// kind's shape pattern is kept with its frame characters stripped; everything
// else (headers, separators, page decorations) is discarded.
func isolateLines(text string, patt *regexp.Regexp) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !patt.MatchString(line) {
			continue
		}
		if len(line) >= 2 {
			line = line[1 : len(line)-1]
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	return lines
}

// splitFields splits a frame-stripped line on the column separator and trims
// each cell.
func splitFields(line string) []string {
	fields := strings.Split(line, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func parseUint32(val string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func parseOptionalUint32(val string) *uint32 {
	n, err := parseUint32(val)
	if err != nil {
		return nil
	}
	return &n
}
