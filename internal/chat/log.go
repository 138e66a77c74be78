package chat

// MessageLog is the append-only ordered store of one conversation's
// messages. Append is the only mutation that grows it; entries are never
// deleted, so Len always equals the number of accepted messages.
type MessageLog struct {
	msgs []Message
	byID map[string]int
}

func NewMessageLog() *MessageLog {
	return &MessageLog{byID: make(map[string]int)}
}

func (l *MessageLog) Append(m Message) string {
	l.byID[m.ID] = len(l.msgs)
	l.msgs = append(l.msgs, m)
	return m.ID
}

func (l *MessageLog) Len() int { return len(l.msgs) }

// All returns a copy of the log in append order. Mutating the returned
// slice does not affect the log.
func (l *MessageLog) All() []Message {
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *MessageLog) FindByID(id string) (Message, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Message{}, false
	}
	return l.msgs[i], true
}

func (l *MessageLog) Last() (Message, bool) {
	if len(l.msgs) == 0 {
		return Message{}, false
	}
	return l.msgs[len(l.msgs)-1], true
}

// SetReactions overwrites the cached tally of the given message with a
// freshly recomputed count map. Returns false if the message is unknown.
func (l *MessageLog) SetReactions(id string, counts map[string]int) bool {
	i, ok := l.byID[id]
	if !ok {
		return false
	}
	l.msgs[i].Reactions = counts
	return true
}
