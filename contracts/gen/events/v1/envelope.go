package v1

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is stamped into every envelope this module produces.
const SchemaVersion = "1.0"

// TimestampLayout is the second-precision UTC layout used on the wire.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Envelope is the canonical wire shape shared by every topic.
// Fields are never mutated after construction; Data is decoded by the
// receiving side using the eventType tag.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Version   string          `json:"version"`
	Timestamp Timestamp       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Timestamp serializes with second precision and always in UTC.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(TimestampLayout))
}

func (t *Timestamp) UnmarshalJSON(raw []byte) error {
	if string(raw) == "null" {
		*t = Timestamp{}
		return nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := time.Parse(TimestampLayout, value)
	if err != nil {
		// Producers outside this module may send offsets or fractions.
		parsed, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", value, err)
		}
	}
	*t = NewTimestamp(parsed)
	return nil
}
