package player

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTime renders seconds as "m:ss". Minutes are not wrapped into hours,
// so 3601 seconds is "60:01". Negative and non-finite input formats as
// "0:00".
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}

	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ParseTime parses "s", "m:ss" or "h:mm:ss" into seconds. Every segment after
// the first must have exactly two digits. The first segment may be
// fractional ("90.5") when it is the only one.
func ParseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	segments := strings.Split(s, ":")
	if len(segments) > 3 {
		return 0, fmt.Errorf("%w: %q has more than three segments", ErrInvalidTime, s)
	}

	total := 0.0
	for i, seg := range segments {
		if i > 0 && len(seg) != 2 {
			return 0, fmt.Errorf("%w: %q segment %q must be two digits", ErrInvalidTime, s, seg)
		}

		var v float64
		if len(segments) == 1 {
			f, err := strconv.ParseFloat(seg, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
			}
			v = f
		} else {
			n, err := strconv.ParseUint(seg, 10, 32)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
			}
			v = float64(n)
		}

		if v < 0 {
			return 0, fmt.Errorf("%w: %q is negative", ErrInvalidTime, s)
		}

		total = total*60 + v
	}

	return total, nil
}
