package v1

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeWireFields(t *testing.T) {
	env := Envelope{
		EventID:   "5f0b7c1e-9d2a-4c53-8a66-0a8f3f0c2b11",
		EventType: EventPostCreated,
		Version:   SchemaVersion,
		Timestamp: NewTimestamp(time.Date(2024, 3, 9, 10, 11, 12, 987_000_000, time.FixedZone("x", 3600))),
		Data:      json.RawMessage(`{"postId":"p1","userId":"u1"}`),
	}

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "5f0b7c1e-9d2a-4c53-8a66-0a8f3f0c2b11", fields["eventId"])
	assert.Equal(t, "POST_CREATED", fields["eventType"])
	assert.Equal(t, "1.0", fields["version"])
	assert.Equal(t, "2024-03-09T09:11:12Z", fields["timestamp"])
	assert.Equal(t, map[string]any{"postId": "p1", "userId": "u1"}, fields["data"])
}

func TestTimestampAcceptsOffsetForms(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-09T10:11:12.5+01:00"`), &ts))
	assert.Equal(t, time.Date(2024, 3, 9, 9, 11, 12, 0, time.UTC), ts.Time)

	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	require.Error(t, json.Unmarshal([]byte(`42`), &ts))
}

func TestPayloadValidation(t *testing.T) {
	err := PostCreated{PostID: "p1"}.Validate()
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "userId", fieldErr.Field)

	assert.NoError(t, PostDeleted{PostID: "p1"}.Validate())
	assert.Error(t, LikeChanged{UserID: "u1", TargetID: "p1", TargetType: "STORY"}.Validate())
	assert.NoError(t, LikeChanged{UserID: "u1", TargetID: "c1", TargetType: TargetComment}.Validate())
}

func TestCatalogCoversEveryTopic(t *testing.T) {
	for _, topic := range []string{TopicUserEvents, TopicPostEvents, TopicPostInteractionEvents, TopicCommentInteractionEvents} {
		assert.NotEmpty(t, Catalog[topic], topic)
	}
}
