package taskstate

import (
	"fmt"
	"strings"
	"time"
)

// FormatCountdown renders a remaining duration as unit segments ordered
// largest to smallest ("1d 1h 1m 1s"). Zero-valued leading units are omitted;
// the result is never empty, flooring at "0s".
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}

	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	seconds := int64(d/time.Second) % 60

	var b strings.Builder
	started := false
	segment := func(v int64, unit string) {
		if !started && v == 0 {
			return
		}
		if started {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d%s", v, unit)
		started = true
	}

	segment(days, "d")
	segment(hours, "h")
	segment(minutes, "m")
	segment(seconds, "s")

	if !started {
		// Sub-second remainder rounds down to the floor.
		return "0s"
	}
	return b.String()
}
