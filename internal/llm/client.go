package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// SchemaKind selects which structured-output schema a completion must
// satisfy. The decision variant adds the trust-game fields.
type SchemaKind int

const (
	SchemaBase SchemaKind = iota
	SchemaDecision
)

// Request is one structured-completion call. Payload is the serialized
// conversation context (prior turns plus per-turn instructions) sent as the
// user message, exactly as the experiment front-ends assemble it.
type Request struct {
	SystemPrompt string
	Payload      string
	Temperature  float32
	Schema       SchemaKind
}

// Reply is the model output parsed against the fixed schema. Identity
// fields (Sender, MsgID) are assigned by the caller before the request and
// must be overwritten locally afterwards; the model echo is never trusted.
type Reply struct {
	Sender    string `json:"sender"`
	MsgID     string `json:"msgId"`
	Tone      string `json:"tone"`
	Text      string `json:"text"`
	Reactions string `json:"reactions"`

	// Decision-game fields, present only under SchemaDecision.
	PerceptionDiff *int  `json:"perceptionDiff,omitempty"`
	TrustRating    *int  `json:"trustRating,omitempty"`
	Decision       *bool `json:"decision,omitempty"`
}

// Client produces structured completions.
type Client interface {
	Complete(ctx context.Context, req Request) (Reply, error)
}

// ParseReply decodes and validates raw model output against the requested
// schema. Missing or empty required fields are a fatal completion error:
// the reply is rejected rather than patched up.
func ParseReply(raw string, schema SchemaKind) (Reply, error) {
	var r Reply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Reply{}, &Error{Err: fmt.Errorf("decode reply: %w", err)}
	}
	if r.Sender == "" || r.MsgID == "" || r.Text == "" {
		return Reply{}, &Error{Err: fmt.Errorf("reply missing required fields: %q", raw)}
	}
	if schema == SchemaDecision {
		if r.PerceptionDiff == nil || r.TrustRating == nil || r.Decision == nil {
			return Reply{}, &Error{Err: fmt.Errorf("reply missing decision fields: %q", raw)}
		}
	}
	return r, nil
}
