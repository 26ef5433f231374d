package config

import (
	"fmt"
	"strconv"
	"strings"
)

// sizeSuffixes maps accepted size suffixes to multipliers, longest form
// first so "KiB" is not consumed as a bare "B". All powers of 1024.
var sizeSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"KIB", 1 << 10}, {"MIB", 1 << 20}, {"GIB", 1 << 30}, {"TIB", 1 << 40},
	{"KI", 1 << 10}, {"MI", 1 << 20}, {"GI", 1 << 30}, {"TI", 1 << 40},
	{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30}, {"T", 1 << 40},
	{"B", 1},
}

// ParseSize parses a human-readable size string into bytes. Plain numbers
// and B/K/M/G/T suffixes are accepted, as are the IEC forms Ki/KiB and so
// on, case-insensitive. Negative sizes are rejected.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	multiplier := int64(1)
	numStr := s
	upper := strings.ToUpper(s)
	for _, sfx := range sizeSuffixes {
		if strings.HasSuffix(upper, sfx.suffix) {
			multiplier = sfx.multiplier
			numStr = strings.TrimSpace(s[:len(s)-len(sfx.suffix)])
			break
		}
	}
	if numStr == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	// Try integer first, then float.
	if n, err := strconv.ParseInt(numStr, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size: %q", s)
		}
		return n * multiplier, nil
	}

	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative size: %q", s)
	}
	return int64(f * float64(multiplier)), nil
}
