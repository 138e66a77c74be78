package chat

import (
	"strconv"
	"time"
)

// SenderKind distinguishes the turn-taking policy applied to a sender.
type SenderKind int

const (
	KindHuman SenderKind = iota
	KindParticipantBot
	KindModeratorBot
	KindNPC
)

func (k SenderKind) IsBot() bool { return k != KindHuman }

// Sender identifies a conversation participant. It is comparable and is used
// as a map key in the turn-tracking state.
type Sender struct {
	Kind  SenderKind
	Seat  int    // 1-based seat within the group, for humans and per-seat bots
	Color string // scene name for NPC bots ("Red", "Black", ...)
}

func Human(seat int) Sender          { return Sender{Kind: KindHuman, Seat: seat} }
func ParticipantBot(seat int) Sender { return Sender{Kind: KindParticipantBot, Seat: seat} }
func ModeratorBot(seat int) Sender   { return Sender{Kind: KindModeratorBot, Seat: seat} }
func NamedNpc(color string) Sender   { return Sender{Kind: KindNPC, Color: color} }

// Label renders the identifier used on the wire, in message ids and in
// export rows: P1/B1/M1 for seated participants, the color name for NPCs.
func (s Sender) Label() string {
	switch s.Kind {
	case KindHuman:
		return "P" + strconv.Itoa(s.Seat)
	case KindParticipantBot:
		return "B" + strconv.Itoa(s.Seat)
	case KindModeratorBot:
		return "M" + strconv.Itoa(s.Seat)
	default:
		return s.Color
	}
}

// Message is one accepted chat turn. Immutable once appended, except for
// Reactions, which the controller overwrites with recomputed counts.
type Message struct {
	ID          string
	Sender      Sender
	SenderLabel string
	Text        string
	Tone        string
	CreatedAt   time.Time
	Reactions   map[string]int
}

// Reaction is one accepted emoji reaction. At most one exists per
// (MessageID, Reactor, Emoji).
type Reaction struct {
	ID        string
	MessageID string
	Reactor   Sender
	Emoji     string
	CreatedAt time.Time
}

// TimestampString formats a timestamp the way export rows and message ids
// carry it: unix seconds with microsecond precision.
func TimestampString(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

func zeroTally(emojis []string) map[string]int {
	m := make(map[string]int, len(emojis))
	for _, e := range emojis {
		m[e] = 0
	}
	return m
}
