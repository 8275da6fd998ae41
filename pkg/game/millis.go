package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Millis wraps time.Time for the backend's epoch-millisecond JSON timestamps.
type Millis struct {
	time.Time
}

// NewMillis builds a Millis truncated to millisecond precision.
func NewMillis(t time.Time) Millis {
	return Millis{t.Truncate(time.Millisecond)}
}

// UnmarshalJSON implements the json.Unmarshaler interface for Millis.
// The backend emits integer epoch milliseconds; null and 0 map to the zero time.
func (m *Millis) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" || s == "0" {
		m.Time = time.Time{}
		return nil
	}

	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse millisecond timestamp '%s': %w", s, err)
	}
	m.Time = time.UnixMilli(ms).UTC()
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Millis.
func (m Millis) MarshalJSON() ([]byte, error) {
	if m.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(m.Time.UnixMilli(), 10)), nil
}
