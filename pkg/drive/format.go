package drive

import (
	"math"
	"strconv"
	"strings"
)

// FormatDecimal renders v the way vehicles expect angle and throttle on the
// wire: shortest round-trip decimal, integral values keep a ".0" suffix.
func FormatDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseDecimal is the inverse used by teleop input. Blank input is zero.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Finite reports whether both values are usable drive outputs.
func Finite(angle, throttle float64) bool {
	return !math.IsNaN(angle) && !math.IsInf(angle, 0) &&
		!math.IsNaN(throttle) && !math.IsInf(throttle, 0)
}
