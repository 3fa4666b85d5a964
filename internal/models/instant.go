package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Instant is a point in time carried in event snapshots. The document layer
// may deliver the same logical field as an RFC3339 string, epoch
// milliseconds, or a lazily-resolved {"_seconds","_nanoseconds"} wrapper;
// Instant resolves all three once at the data-model boundary so everything
// downstream compares plain instants.
type Instant struct {
	time.Time
}

// NewInstant wraps a time.Time as an Instant.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t}
}

type timestampWrapper struct {
	Seconds int64 `json:"_seconds"`
	Nanos   int64 `json:"_nanoseconds"`
}

// UnmarshalJSON accepts RFC3339 strings, epoch milliseconds and
// {"_seconds","_nanoseconds"} wrappers.
func (i *Instant) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		i.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse instant %q: %w", s, err)
		}
		i.Time = t
		return nil
	}

	// An object is always the wrapper form; epoch zero is a legitimate value.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var w timestampWrapper
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("parse instant wrapper: %w", err)
		}
		i.Time = time.Unix(w.Seconds, w.Nanos).UTC()
		return nil
	}

	var millis int64
	if err := json.Unmarshal(data, &millis); err == nil {
		i.Time = time.UnixMilli(millis).UTC()
		return nil
	}

	return fmt.Errorf("unsupported instant encoding: %s", string(data))
}

// MarshalJSON encodes the instant as RFC3339 with nanoseconds.
func (i Instant) MarshalJSON() ([]byte, error) {
	if i.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(i.Time.Format(time.RFC3339Nano))
}

// Equal compares two instants by resolved point in time.
func (i Instant) Equal(other Instant) bool {
	return i.Time.Equal(other.Time)
}
