package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

const schemaName = "msg_output"

// baseSchema is the fixed structured-output contract every bot reply must
// match. The decision variant extends it with the trust-game fields.
var baseSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"sender": {"type": "string"},
		"msgId": {"type": "string"},
		"tone": {"type": "string"},
		"text": {"type": "string"},
		"reactions": {"type": "string"}
	},
	"required": ["sender", "msgId", "tone", "text", "reactions"],
	"additionalProperties": false
}`)

var decisionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"sender": {"type": "string"},
		"msgId": {"type": "string"},
		"tone": {"type": "string"},
		"text": {"type": "string"},
		"reactions": {"type": "string"},
		"perceptionDiff": {"type": "integer"},
		"trustRating": {"type": "integer"},
		"decision": {"type": "boolean"}
	},
	"required": ["sender", "msgId", "tone", "text", "reactions", "perceptionDiff", "trustRating", "decision"],
	"additionalProperties": false
}`)

func schemaFor(kind SchemaKind) json.RawMessage {
	if kind == SchemaDecision {
		return decisionSchema
	}
	return baseSchema
}

// OpenAIClient is the production completion client: chat completions with a
// strict JSON-schema response format, wrapped in the retry policy.
type OpenAIClient struct {
	client          *openai.Client
	model           string
	capability      Capability
	reasoningEffort string
	retry           Policy
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

func NewOpenAI(apiKey, baseURL, model, referrer, title, reasoningEffort string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	// Inject optional headers (useful for OpenRouter)
	if referrer != "" || title != "" {
		h := http.Header{}
		if referrer != "" {
			h.Set("HTTP-Referer", referrer)
		}
		if title != "" {
			h.Set("X-Title", title)
		}
		base := http.DefaultTransport
		config.HTTPClient = &http.Client{Transport: headerTransport{rt: base, headers: h}}
	}
	return &OpenAIClient{
		client:          openai.NewClientWithConfig(config),
		model:           model,
		capability:      ModelCapability(model),
		reasoningEffort: reasoningEffort,
		retry:           DefaultPolicy(),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Reply, error) {
	return withRetry(c.retry, c.model, c.once)(ctx, req)
}

func (c *OpenAIClient) once(ctx context.Context, req Request) (Reply, error) {
	oaReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Payload},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schemaFor(req.Schema),
				Strict: true,
			},
		},
	}
	// Capability-gated parameters: only models that accept them get them.
	if c.capability.Temperature {
		oaReq.Temperature = req.Temperature
	}
	if c.capability.Reasoning && c.reasoningEffort != "" && c.reasoningEffort != "none" {
		oaReq.ReasoningEffort = c.reasoningEffort
	}

	resp, err := c.client.CreateChatCompletion(ctx, oaReq)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, &Error{Err: fmt.Errorf("completion returned no choices")}
	}
	return ParseReply(resp.Choices[0].Message.Content, req.Schema)
}
