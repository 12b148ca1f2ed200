// Package models defines the canonical conversation structures shared by
// the format adapters, the role assignment engine, and the ingestion pipeline.
package models

// Role classifies a speaker turn. The two canonical values are RoleAgent and
// RoleCustomer; the AWS adapter passes the vendor participant id through
// verbatim, so the type stays open at the edges and the closed set is
// enforced where it matters (user id and channel tag mapping).
type Role string

const (
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// User id convention used by the analytics ingestion format.
const (
	UserIDAgent    = 1
	UserIDCustomer = 2
)

// Channel tag convention attached to recognition results after role merge.
const (
	ChannelTagAgent    = 2
	ChannelTagCustomer = 1
)

const MicrosecondsPerSecond = 1_000_000

// Entry is one turn of a canonical conversation.
type Entry struct {
	Role               Role   `json:"role"`
	StartTimestampUsec int64  `json:"start_timestamp_usec"`
	Text               string `json:"text"`
	UserID             int    `json:"user_id"`
}

// Conversation is the canonical representation every vendor transcript format
// is converted into. Entries preserve source order.
type Conversation struct {
	Entries []Entry `json:"entries"`
}

// Utterance is one classification-ready turn: a dense zero-based uid plus the
// transcript text of the turn.
type Utterance struct {
	UID  int    `json:"uid"`
	Text string `json:"text"`
}

// UtteranceList is the flattened form of a raw recognition result, consumed
// by the role assignment engine.
type UtteranceList struct {
	Results []Utterance `json:"results"`
}

// RolePrediction is one predicted role from the classification model.
type RolePrediction struct {
	UID  int  `json:"uid"`
	Role Role `json:"role"`
}

// RolePredictions is the full model response for one conversation.
type RolePredictions struct {
	Predictions []RolePrediction `json:"predictions"`
}
