package v1

// Topic names. The partition key on every topic is the subject aggregate id.
const (
	TopicUserEvents               = "user-events"
	TopicPostEvents               = "post-events"
	TopicPostInteractionEvents    = "post-interaction-events"
	TopicCommentInteractionEvents = "comment-interaction-events"
)

const (
	EventUserRegistered = "USER_REGISTERED"
	EventUserUpdated    = "USER_UPDATED"

	EventPostCreated = "POST_CREATED"
	EventPostUpdated = "POST_UPDATED"
	EventPostDeleted = "POST_DELETED"

	EventLikeAdded      = "LIKE_ADDED"
	EventLikeRemoved    = "LIKE_REMOVED"
	EventCommentCreated = "COMMENT_CREATED"
	EventCommentDeleted = "COMMENT_DELETED"
)

// Catalog lists the allowed event types per topic.
var Catalog = map[string][]string{
	TopicUserEvents:               {EventUserRegistered, EventUserUpdated},
	TopicPostEvents:               {EventPostCreated, EventPostUpdated, EventPostDeleted},
	TopicPostInteractionEvents:    {EventLikeAdded, EventLikeRemoved, EventCommentCreated, EventCommentDeleted},
	TopicCommentInteractionEvents: {EventLikeAdded, EventLikeRemoved},
}
