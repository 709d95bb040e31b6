package amap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// coordPattern matches "<lon>,<lat>" with optional whitespace around the comma.
var coordPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// NormalizeLocation validates a "<lon>,<lat>" pair and returns it without
// whitespace.
func NormalizeLocation(s string) (string, error) {
	m := coordPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid coordinate %q: expected \"<lon>,<lat>\"", s)
	}

	lon, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return "", fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return "", fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	if err := ValidateCoords(lat, lon); err != nil {
		return "", err
	}

	return m[1] + "," + m[2], nil
}

// ValidateCoords checks that lat and lon are within WGS-84 bounds.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude value: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude value: %f (must be between -180 and 180)", lon)
	}
	return nil
}

// normalizeLocationList validates a '|' separated list of coordinates.
func normalizeLocationList(s string) (string, error) {
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		loc, err := NormalizeLocation(p)
		if err != nil {
			return "", err
		}
		out = append(out, loc)
	}
	return strings.Join(out, "|"), nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
