package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	eventsv1 "inkwell/contracts/gen/events/v1"
)

// Envelope is the shared event shape used by every service.
type Envelope = eventsv1.Envelope

var (
	ErrMalformedEnvelope      = errors.New("malformed event envelope")
	ErrMissingEnvelope        = errors.New("event envelope is empty")
	ErrMissingEventType       = errors.New("event envelope has no eventType")
	ErrUnknownEventType       = errors.New("unknown event type")
	ErrIdempotencyKeyConflict = errors.New("event id reused with a different payload")
)

// NewEnvelope builds an immutable envelope. The eventID is supplied by the
// caller so that every publish attempt of the same occurrence carries it.
func NewEnvelope(eventID string, eventType string, occurredAt time.Time, payload any) (Envelope, error) {
	if strings.TrimSpace(eventID) == "" {
		return Envelope{}, fmt.Errorf("%w: eventId is required", ErrMalformedEnvelope)
	}
	if strings.TrimSpace(eventType) == "" {
		return Envelope{}, ErrMissingEventType
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:   eventID,
		EventType: eventType,
		Version:   eventsv1.SchemaVersion,
		Timestamp: eventsv1.NewTimestamp(occurredAt),
		Data:      data,
	}, nil
}

func Encode(envelope Envelope) ([]byte, error) {
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode envelope %s: %w", envelope.EventID, err)
	}
	return raw, nil
}

// Decode parses wire bytes. Empty input and JSON null report
// ErrMissingEnvelope; an envelope without a type reports ErrMissingEventType.
func Decode(raw []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Envelope{}, ErrMissingEnvelope
	}

	var envelope Envelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if strings.TrimSpace(envelope.EventType) == "" {
		return envelope, ErrMissingEventType
	}
	if strings.TrimSpace(envelope.EventID) == "" {
		return envelope, fmt.Errorf("%w: eventId is required", ErrMalformedEnvelope)
	}
	return envelope, nil
}
