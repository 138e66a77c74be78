package chat

import "time"

// ReactionTally stores reactions per message and derives emoji counts by
// scanning the full history on every accepted add. Counts are never
// incremented in place; recomputing from the stored reactions keeps the
// tally correct under replays and duplicate deliveries.
type ReactionTally struct {
	emojis []string
	byMsg  map[string][]Reaction
}

func NewReactionTally(emojis []string) *ReactionTally {
	return &ReactionTally{
		emojis: append([]string(nil), emojis...),
		byMsg:  make(map[string][]Reaction),
	}
}

// AddReaction records a reaction unless the same (message, reactor, emoji)
// triple already exists. The returned map always holds the full recomputed
// tally for the message, one entry per configured emoji.
func (t *ReactionTally) AddReaction(id, messageID string, reactor Sender, emoji string, at time.Time) (bool, map[string]int) {
	for _, r := range t.byMsg[messageID] {
		if r.Reactor == reactor && r.Emoji == emoji {
			return false, t.Counts(messageID)
		}
	}
	t.byMsg[messageID] = append(t.byMsg[messageID], Reaction{
		ID:        id,
		MessageID: messageID,
		Reactor:   reactor,
		Emoji:     emoji,
		CreatedAt: at,
	})
	return true, t.Counts(messageID)
}

// Counts recomputes the tally for one message: the number of distinct
// reactors per emoji over the message's whole reaction history.
func (t *ReactionTally) Counts(messageID string) map[string]int {
	counts := zeroTally(t.emojis)
	seen := make(map[string]map[Sender]bool, len(t.emojis))
	for _, r := range t.byMsg[messageID] {
		if seen[r.Emoji] == nil {
			seen[r.Emoji] = make(map[Sender]bool)
		}
		if seen[r.Emoji][r.Reactor] {
			continue
		}
		seen[r.Emoji][r.Reactor] = true
		if _, known := counts[r.Emoji]; known {
			counts[r.Emoji]++
		}
	}
	return counts
}

// All returns every stored reaction for a message in arrival order.
func (t *ReactionTally) All(messageID string) []Reaction {
	rs := t.byMsg[messageID]
	out := make([]Reaction, len(rs))
	copy(out, rs)
	return out
}
