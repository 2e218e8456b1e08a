package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	eventsv1 "inkwell/contracts/gen/events/v1"
)

var ErrMalformedPayload = errors.New("malformed event payload")

// Decoder turns the data object of an envelope into its typed payload.
type Decoder func(data json.RawMessage) (any, error)

type validator interface {
	Validate() error
}

// Registry is the explicit allow-list mapping (topic, eventType) to a
// payload decoder. Tags missing from it are treated as unknown.
type Registry struct {
	decoders map[string]map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]map[string]Decoder)}
}

// Register adds eventType on topic with payload shape T.
func Register[T any](r *Registry, topic string, eventType string) {
	byType, ok := r.decoders[topic]
	if !ok {
		byType = make(map[string]Decoder)
		r.decoders[topic] = byType
	}
	byType[eventType] = decodeAs[T](eventType)
}

func (r *Registry) Lookup(topic string, eventType string) (Decoder, bool) {
	decoder, ok := r.decoders[topic][eventType]
	return decoder, ok
}

// Types returns the registered tags for topic in sorted order.
func (r *Registry) Types(topic string) []string {
	types := make([]string, 0, len(r.decoders[topic]))
	for eventType := range r.decoders[topic] {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

// StandardRegistry registers every payload of the event catalogue.
func StandardRegistry() *Registry {
	r := NewRegistry()
	Register[eventsv1.UserRegistered](r, eventsv1.TopicUserEvents, eventsv1.EventUserRegistered)
	Register[eventsv1.UserUpdated](r, eventsv1.TopicUserEvents, eventsv1.EventUserUpdated)

	Register[eventsv1.PostCreated](r, eventsv1.TopicPostEvents, eventsv1.EventPostCreated)
	Register[eventsv1.PostUpdated](r, eventsv1.TopicPostEvents, eventsv1.EventPostUpdated)
	Register[eventsv1.PostDeleted](r, eventsv1.TopicPostEvents, eventsv1.EventPostDeleted)

	Register[eventsv1.LikeChanged](r, eventsv1.TopicPostInteractionEvents, eventsv1.EventLikeAdded)
	Register[eventsv1.LikeChanged](r, eventsv1.TopicPostInteractionEvents, eventsv1.EventLikeRemoved)
	Register[eventsv1.CommentCreated](r, eventsv1.TopicPostInteractionEvents, eventsv1.EventCommentCreated)
	Register[eventsv1.CommentDeleted](r, eventsv1.TopicPostInteractionEvents, eventsv1.EventCommentDeleted)

	Register[eventsv1.LikeChanged](r, eventsv1.TopicCommentInteractionEvents, eventsv1.EventLikeAdded)
	Register[eventsv1.LikeChanged](r, eventsv1.TopicCommentInteractionEvents, eventsv1.EventLikeRemoved)
	return r
}

func decodeAs[T any](eventType string) Decoder {
	return func(data json.RawMessage) (any, error) {
		var payload T
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: %s has no data", ErrMalformedPayload, eventType)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, eventType, err)
		}
		if v, ok := any(payload).(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, eventType, err)
			}
		}
		return payload, nil
	}
}
