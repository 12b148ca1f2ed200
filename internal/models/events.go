package models

// Event type names carried on published events.
const (
	EventConversationTagged = "conversation.roles.tagged"
	EventQualityAlert       = "conversation.roles.mismatch"
)

// ConversationTagged announces a role-tagged recognition result ready for
// analytics ingestion.
type ConversationTagged struct {
	EventType  string `json:"eventType"`
	ObjectKey  string `json:"objectKey"`
	OutputKey  string `json:"outputKey"`
	Utterances int    `json:"utterances"`
	Timestamp  int64  `json:"timestamp"`
}

// QualityAlert reports a prediction/result misalignment observed during role
// merge. Sustained alerts mean the model output and the recognition results
// are drifting out of positional alignment.
type QualityAlert struct {
	EventType   string `json:"eventType"`
	ObjectKey   string `json:"objectKey"`
	Results     int    `json:"results"`
	Predictions int    `json:"predictions"`
	Timestamp   int64  `json:"timestamp"`
}
