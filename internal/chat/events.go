package chat

// Inbound is the tagged union of events a conversation can receive. Each
// variant maps to one branch of the controller's exhaustive switch; there
// is deliberately no generic map payload.
type Inbound interface{ inbound() }

type TextSubmitted struct {
	Sender Sender
	Text   string
}

type BotTurnRequested struct {
	BotLabel   string
	IsGreeting bool
}

type ReactionAdded struct {
	MessageID   string
	Reactor     Sender
	Emoji       string
	TargetLabel string
}

type PhaseChanged struct {
	Phase int
}

func (TextSubmitted) inbound()    {}
func (BotTurnRequested) inbound() {}
func (ReactionAdded) inbound()    {}
func (PhaseChanged) inbound()     {}

// Audience says who an outbound event is addressed to.
type Audience int

const (
	AudienceAll Audience = iota
	AudienceRequester
)

// Outbound is the tagged union of events the controller emits back to the
// transport. Field names match the live wire format.
type Outbound interface{ outbound() }

type TextAccepted struct {
	Event    string `json:"event"` // "text"
	SelfText string `json:"selfText"`
	Sender   string `json:"sender"`
	MsgID    string `json:"msgId"`
	Tone     string `json:"tone"`
	Phase    int    `json:"phase"`
}

type BotText struct {
	Event    string `json:"event"` // "botText"
	BotMsgID string `json:"botMsgId"`
	Text     string `json:"text"`
	Tone     string `json:"tone"`
	Sender   string `json:"sender"`
	Phase    int    `json:"phase"`

	// Decision-game variant only.
	Decision    *bool `json:"decision,omitempty"`
	TrustRating *int  `json:"trustRating,omitempty"`
}

type ReactionApplied struct {
	Event         string         `json:"event"` // "msgReaction"
	PlayerID      string         `json:"playerId"`
	MsgID         string         `json:"msgId"`
	MsgReactionID string         `json:"msgReactionId"`
	Target        string         `json:"target"`
	Emoji         string         `json:"emoji"`
	Counts        map[string]int `json:"counts"`
}

type PhaseAdvanced struct {
	Event string `json:"event"` // "phase"
	Phase int    `json:"phase"`
}

type BotError struct {
	Event  string `json:"event"` // "botError"
	Sender string `json:"sender"`
	Reason string `json:"reason"`
}

func (TextAccepted) outbound()    {}
func (BotText) outbound()         {}
func (ReactionApplied) outbound() {}
func (PhaseAdvanced) outbound()   {}
func (BotError) outbound()        {}

// Delivery pairs an outbound event with its audience.
type Delivery struct {
	To    Audience
	Event Outbound
}

// ValidationError marks a malformed inbound event. The event is dropped;
// the conversation is never failed by one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid event: " + e.Reason }
