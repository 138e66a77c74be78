package chat

// DefaultModFrequency is how many messages must elapse between moderator
// interventions unless configured otherwise.
const DefaultModFrequency = 6

// bootstrapMessages is the count below which every bot may speak, so both
// opening greetings go through regardless of order.
const bootstrapMessages = 2

// Arbiter decides which participant may emit the next message. It is a pure
// predicate over State; a denial is not an error, the caller just skips.
type Arbiter struct {
	ModFrequency int
}

func NewArbiter(modFrequency int) Arbiter {
	if modFrequency <= 0 {
		modFrequency = DefaultModFrequency
	}
	return Arbiter{ModFrequency: modFrequency}
}

// CanSpeak reports whether the given sender may produce the next message.
//
// Humans are always allowed. Bots never speak twice in direct succession.
// During bootstrap every bot is eligible. After that, participant-style
// bots (participant and NPC) may speak only if a human has spoken since
// their own last utterance, and the moderator only once ModFrequency
// messages have elapsed since its last utterance.
func (a Arbiter) CanSpeak(st *State, who Sender) bool {
	if who.Kind == KindHuman {
		return true
	}
	if last, ok := st.Log.Last(); ok && last.Sender == who {
		return false
	}
	if st.TotalMessages < bootstrapMessages {
		return true
	}
	switch who.Kind {
	case KindModeratorBot:
		return st.TotalMessages-st.LastSpokeAt(who) >= a.ModFrequency
	default:
		return st.LastHumanSpokeAt() > st.LastSpokeAt(who)
	}
}
