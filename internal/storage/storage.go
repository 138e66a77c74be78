package storage

// MessageRecord is one exported chat message row. Rows are appended in
// chronological order and never rewritten; the export pipeline reads them
// after the session ends.
type MessageRecord struct {
	ConversationID string `json:"conversationId"`
	SubjectID      string `json:"subjectId"`
	MsgID          string `json:"msgId"`
	Timestamp      string `json:"timestamp"`
	Sender         string `json:"sender"`
	Tone           string `json:"tone"`
	Text           string `json:"text"`
	ReactionsJSON  string `json:"reactionsJson"`
}

// ReactionRecord is one exported reaction row.
type ReactionRecord struct {
	ConversationID string `json:"conversationId"`
	SubjectID      string `json:"subjectId"`
	MsgID          string `json:"msgId"`
	ReactionID     string `json:"msgReactionId"`
	Timestamp      string `json:"timestamp"`
	Sender         string `json:"sender"`
	Target         string `json:"target"`
	Emoji          string `json:"emoji"`
}

// Recorder abstracts durable persistence of accepted messages and
// reactions. Implementations must be safe for concurrent use; appends from
// different conversations interleave.
type Recorder interface {
	AppendMessage(m MessageRecord) error
	AppendReaction(r ReactionRecord) error
	LoadMessages(conversationID string) ([]MessageRecord, error)
	LoadReactions(conversationID string) ([]ReactionRecord, error)
}
