package storage

import (
	"encoding/json"

	"agentchat/internal/chat"
)

// Exporter adapts a Recorder to the controller's Sink contract for one
// conversation, stamping every row with the conversation and subject ids.
type Exporter struct {
	rec            Recorder
	conversationID string
	subjectID      string
}

func NewExporter(rec Recorder, conversationID, subjectID string) *Exporter {
	return &Exporter{rec: rec, conversationID: conversationID, subjectID: subjectID}
}

func (e *Exporter) RecordMessage(m chat.Message) error {
	reacts, err := json.Marshal(m.Reactions)
	if err != nil {
		reacts = []byte("{}")
	}
	return e.rec.AppendMessage(MessageRecord{
		ConversationID: e.conversationID,
		SubjectID:      e.subjectID,
		MsgID:          m.ID,
		Timestamp:      chat.TimestampString(m.CreatedAt),
		Sender:         m.SenderLabel,
		Tone:           m.Tone,
		Text:           m.Text,
		ReactionsJSON:  string(reacts),
	})
}

func (e *Exporter) RecordReaction(r chat.Reaction, targetLabel string) error {
	return e.rec.AppendReaction(ReactionRecord{
		ConversationID: e.conversationID,
		SubjectID:      e.subjectID,
		MsgID:          r.MessageID,
		ReactionID:     r.ID,
		Timestamp:      chat.TimestampString(r.CreatedAt),
		Sender:         r.Reactor.Label(),
		Target:         targetLabel,
		Emoji:          r.Emoji,
	})
}
