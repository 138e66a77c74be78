package chat

// State is the mutable per-conversation record: the message log, the
// reaction store, turn-tracking high-water marks, and the experiment phase.
// One State exists per conversation (per player or per group, depending on
// topology) and lives for the whole conversation.
type State struct {
	Log       *MessageLog
	Reactions *ReactionTally

	// TotalMessages strictly increases by one per accepted message.
	TotalMessages int

	// lastSpokeAt holds, per sender, the TotalMessages value at the moment
	// that sender's latest message was accepted.
	lastSpokeAt map[Sender]int

	Phase int
	Tone  string

	// TrustRating accumulates perception differences in the decision-game
	// variant. Unused otherwise.
	TrustRating int
}

func NewState(emojis []string, tone string, initialTrust int) *State {
	return &State{
		Log:         NewMessageLog(),
		Reactions:   NewReactionTally(emojis),
		lastSpokeAt: make(map[Sender]int),
		Tone:        tone,
		TrustRating: initialTrust,
	}
}

// LastSpokeAt returns the high-water mark for a sender, or -1 if the sender
// has never spoken in this conversation.
func (s *State) LastSpokeAt(who Sender) int {
	if n, ok := s.lastSpokeAt[who]; ok {
		return n
	}
	return -1
}

// LastHumanSpokeAt returns the highest mark across all human seats, or -1.
func (s *State) LastHumanSpokeAt() int {
	last := -1
	for who, n := range s.lastSpokeAt {
		if who.Kind == KindHuman && n > last {
			last = n
		}
	}
	return last
}

// accept appends a message and advances the sender's high-water mark and
// the total count, in that order: the mark records the count as it was
// before the message itself.
func (s *State) accept(m Message) {
	s.Log.Append(m)
	s.lastSpokeAt[m.Sender] = s.TotalMessages
	s.TotalMessages++
}
