package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"agentchat/internal/llm"
	"agentchat/internal/metrics"
)

// BotProfile configures one bot participant of a conversation.
type BotProfile struct {
	Sender       Sender
	SystemPrompt string
	Temperature  float32
	Schema       llm.SchemaKind

	// ToneOverride replaces the conversation tone in this bot's assigned
	// reply tone (the moderator always answers in a "moderator" tone).
	ToneOverride string
}

// Sink receives every accepted message and reaction for durable export.
// Sink failures are logged and never fail the conversation; the in-memory
// log stays the source of truth.
type Sink interface {
	RecordMessage(m Message) error
	RecordReaction(r Reaction, targetLabel string) error
}

// PhaseHook runs one-time initialization on the first forward phase
// transition (the 3D variant assigns NPC positions here).
type PhaseHook func(phase int)

// Config is the immutable per-conversation configuration. It is passed in
// at construction; nothing is read from ambient globals.
type Config struct {
	Emojis       []string
	Tone         string
	ModFrequency int
	Bots         []BotProfile
	InitialTrust int
	Clock        func() time.Time
}

// Controller orchestrates one conversation: it owns the State and is the
// only writer to it. Callers must serialize Handle invocations per
// conversation (the hub's per-conversation loop provides that).
type Controller struct {
	cfg       Config
	state     *State
	arbiter   Arbiter
	completer llm.Client
	sink      Sink
	hook      PhaseHook

	bots      map[string]BotProfile
	lastStamp time.Time
	hookRan   bool
}

func NewController(cfg Config, completer llm.Client, sink Sink, hook PhaseHook) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	bots := make(map[string]BotProfile, len(cfg.Bots))
	for _, b := range cfg.Bots {
		bots[b.Sender.Label()] = b
	}
	return &Controller{
		cfg:       cfg,
		state:     NewState(cfg.Emojis, cfg.Tone, cfg.InitialTrust),
		arbiter:   NewArbiter(cfg.ModFrequency),
		completer: completer,
		sink:      sink,
		hook:      hook,
		bots:      bots,
	}
}

func (c *Controller) State() *State { return c.state }

// Snapshot is a read-only copy of what a refreshed page needs to
// re-render the chat. It must be taken from inside the conversation's
// event loop so readers never observe a half-applied event.
type Snapshot struct {
	Messages      []Message
	Phase         int
	TotalMessages int
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Messages:      c.state.Log.All(),
		Phase:         c.state.Phase,
		TotalMessages: c.state.TotalMessages,
	}
}

// Handle applies one inbound event. An event either fully applies or
// leaves the state unchanged; turn denials and duplicate reactions return
// no deliveries and no error.
func (c *Controller) Handle(ctx context.Context, ev Inbound) ([]Delivery, error) {
	switch e := ev.(type) {
	case TextSubmitted:
		return c.handleText(e)
	case BotTurnRequested:
		return c.handleBotTurn(ctx, e)
	case ReactionAdded:
		return c.handleReaction(e)
	case PhaseChanged:
		return c.handlePhase(e)
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown event %T", ev)}
	}
}

func (c *Controller) handleText(ev TextSubmitted) ([]Delivery, error) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil, &ValidationError{Reason: "empty text"}
	}
	if ev.Sender.Kind != KindHuman {
		return nil, &ValidationError{Reason: "text events come from human seats only"}
	}
	now := c.stamp()
	msg := Message{
		ID:          mintID(ev.Sender.Label(), now),
		Sender:      ev.Sender,
		SenderLabel: ev.Sender.Label(),
		Text:        text,
		Tone:        c.state.Tone,
		CreatedAt:   now,
		Reactions:   zeroTally(c.cfg.Emojis),
	}
	c.state.accept(msg)
	c.record(msg)
	metrics.MessagesAccepted.WithLabelValues("human").Inc()
	return []Delivery{{To: AudienceAll, Event: TextAccepted{
		Event:    "text",
		SelfText: text,
		Sender:   msg.SenderLabel,
		MsgID:    msg.ID,
		Tone:     msg.Tone,
		Phase:    c.state.Phase,
	}}}, nil
}

func (c *Controller) handleBotTurn(ctx context.Context, ev BotTurnRequested) ([]Delivery, error) {
	profile, ok := c.bots[ev.BotLabel]
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown bot %q", ev.BotLabel)}
	}
	if !c.arbiter.CanSpeak(c.state, profile.Sender) {
		metrics.TurnsDenied.Inc()
		return nil, nil
	}

	now := c.stamp()
	assignedID := mintID(profile.Sender.Label(), now)
	tone := c.state.Tone
	if profile.ToneOverride != "" {
		tone = profile.ToneOverride
	}

	req := llm.Request{
		SystemPrompt: profile.SystemPrompt,
		Payload:      c.buildPayload(profile, assignedID, tone, ev.IsGreeting),
		Temperature:  profile.Temperature,
		Schema:       profile.Schema,
	}
	reply, err := c.completer.Complete(ctx, req)
	if ctx.Err() != nil {
		// The conversation was torn down while the call was in flight;
		// discard whatever came back.
		return nil, ctx.Err()
	}
	if err != nil {
		return []Delivery{{To: AudienceRequester, Event: BotError{
			Event:  "botError",
			Sender: profile.Sender.Label(),
			Reason: err.Error(),
		}}}, nil
	}

	// Identity fields are assigned locally; the model echo is not trusted.
	msg := Message{
		ID:          assignedID,
		Sender:      profile.Sender,
		SenderLabel: profile.Sender.Label(),
		Text:        reply.Text,
		Tone:        tone,
		CreatedAt:   now,
		Reactions:   zeroTally(c.cfg.Emojis),
	}
	out := BotText{
		Event:    "botText",
		BotMsgID: msg.ID,
		Text:     msg.Text,
		Tone:     msg.Tone,
		Sender:   msg.SenderLabel,
	}
	if profile.Schema == llm.SchemaDecision && reply.PerceptionDiff != nil {
		c.state.TrustRating += clamp(*reply.PerceptionDiff, -5, 5)
		trust := c.state.TrustRating
		out.TrustRating = &trust
		out.Decision = reply.Decision
	}
	c.state.accept(msg)
	c.record(msg)
	out.Phase = c.state.Phase
	metrics.MessagesAccepted.WithLabelValues(kindName(profile.Sender.Kind)).Inc()
	return []Delivery{{To: AudienceAll, Event: out}}, nil
}

func (c *Controller) handleReaction(ev ReactionAdded) ([]Delivery, error) {
	if !c.knownEmoji(ev.Emoji) {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown emoji %q", ev.Emoji)}
	}
	if _, ok := c.state.Log.FindByID(ev.MessageID); !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown message %q", ev.MessageID)}
	}
	now := c.stamp()
	id := mintID(ev.Reactor.Label(), now)
	accepted, counts := c.state.Reactions.AddReaction(id, ev.MessageID, ev.Reactor, ev.Emoji, now)
	if !accepted {
		metrics.ReactionsDuplicate.Inc()
		return nil, nil
	}
	c.state.Log.SetReactions(ev.MessageID, counts)
	if c.sink != nil {
		r := Reaction{ID: id, MessageID: ev.MessageID, Reactor: ev.Reactor, Emoji: ev.Emoji, CreatedAt: now}
		if err := c.sink.RecordReaction(r, ev.TargetLabel); err != nil {
			log.Printf("failed to record reaction %s: %v", id, err)
		}
	}
	metrics.ReactionsAccepted.Inc()
	return []Delivery{{To: AudienceAll, Event: ReactionApplied{
		Event:         "msgReaction",
		PlayerID:      ev.Reactor.Label(),
		MsgID:         ev.MessageID,
		MsgReactionID: id,
		Target:        ev.TargetLabel,
		Emoji:         ev.Emoji,
		Counts:        counts,
	}}}, nil
}

func (c *Controller) handlePhase(ev PhaseChanged) ([]Delivery, error) {
	// Phase only moves forward; re-entrant calls with the same or a lower
	// phase are no-ops.
	if ev.Phase <= c.state.Phase {
		return nil, nil
	}
	c.state.Phase = ev.Phase
	if !c.hookRan && c.hook != nil {
		c.hook(ev.Phase)
		c.hookRan = true
	}
	return []Delivery{{To: AudienceAll, Event: PhaseAdvanced{Event: "phase", Phase: ev.Phase}}}, nil
}

func (c *Controller) record(m Message) {
	if c.sink == nil {
		return
	}
	if err := c.sink.RecordMessage(m); err != nil {
		log.Printf("failed to record message %s: %v", m.ID, err)
	}
}

func (c *Controller) knownEmoji(emoji string) bool {
	for _, e := range c.cfg.Emojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// stamp returns a strictly increasing timestamp so minted ids stay unique
// even when the clock does not advance between events.
func (c *Controller) stamp() time.Time {
	now := c.cfg.Clock().UTC()
	if !now.After(c.lastStamp) {
		now = c.lastStamp.Add(time.Microsecond)
	}
	c.lastStamp = now
	return now
}

func mintID(label string, t time.Time) string {
	return label + "-" + TimestampString(t)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func kindName(k SenderKind) string {
	switch k {
	case KindHuman:
		return "human"
	case KindParticipantBot:
		return "participant_bot"
	case KindModeratorBot:
		return "moderator_bot"
	default:
		return "npc"
	}
}

// payload shapes match what the experiment front-ends historically fed the
// model: the whole visible history plus per-turn instructions.
type contextEntry struct {
	Sender    string `json:"sender"`
	Label     string `json:"label"`
	MsgID     string `json:"msgId"`
	Text      string `json:"text"`
	Reactions string `json:"reactions"`
}

type completionPayload struct {
	BotLabel     string         `json:"botLabel"`
	Tone         string         `json:"tone"`
	Messages     []contextEntry `json:"messages"`
	Instructions string         `json:"instructions"`
}

func (c *Controller) buildPayload(profile BotProfile, assignedID, tone string, greeting bool) string {
	msgs := c.state.Log.All()
	entries := make([]contextEntry, 0, len(msgs))
	for _, m := range msgs {
		reacts, _ := json.Marshal(m.Reactions)
		entries = append(entries, contextEntry{
			Sender:    roleLabel(m.Sender),
			Label:     m.SenderLabel,
			MsgID:     m.ID,
			Text:      m.Text,
			Reactions: string(reacts),
		})
	}
	zeroed, _ := json.Marshal(zeroTally(c.cfg.Emojis))
	p := completionPayload{
		BotLabel:     profile.Sender.Label(),
		Tone:         tone,
		Messages:     entries,
		Instructions: instructionsFor(profile, assignedID, tone, string(zeroed), greeting),
	}
	out, _ := json.Marshal(p)
	return string(out)
}

func roleLabel(s Sender) string {
	switch s.Kind {
	case KindHuman:
		return "user"
	case KindModeratorBot:
		return "assistant (Moderator)"
	default:
		return "assistant (" + s.Label() + ")"
	}
}

func instructionsFor(profile BotProfile, assignedID, tone, zeroedReactions string, greeting bool) string {
	label := profile.Sender.Label()
	var b strings.Builder
	if profile.Sender.Kind == KindModeratorBot {
		fmt.Fprintf(&b, "You are %s, the MODERATOR. You do NOT participate in the debate. Your role is to facilitate and coach the discussion. ", label)
	} else {
		fmt.Fprintf(&b, "You are %s. ", label)
	}
	if greeting {
		b.WriteString("This is your opening greeting. ")
	}
	b.WriteString("Provide a json object with the following schema (DO NOT CHANGE ASSIGNED VALUES):\n")
	fmt.Fprintf(&b, "  'sender': %s (string),\n", label)
	fmt.Fprintf(&b, "  'msgId': %s (string),\n", assignedID)
	fmt.Fprintf(&b, "  'tone': %s (string),\n", tone)
	fmt.Fprintf(&b, "  'text': Your response to the user's message in a %s tone (string),\n", tone)
	fmt.Fprintf(&b, "  'reactions': %s (string)", zeroedReactions)
	if profile.Schema == llm.SchemaDecision {
		b.WriteString(",\n")
		b.WriteString("  'perceptionDiff': an integer between -5 and 5, based on how trustworthy the user's most recent message is (integer),\n")
		b.WriteString("  'trustRating': the running sum of your previous trustRating and perceptionDiff (integer),\n")
		b.WriteString("  'decision': your current decision to trust the user (boolean)")
	}
	return b.String()
}
