package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"agentchat/internal/chat"
	"agentchat/internal/llm"
)

// Experiment is the study definition loaded from YAML: the model, the
// emoji and tone vocabularies, the moderator cadence, and one entry per
// bot with its persona prompt. It replaces the constants bags the older
// experiment apps kept at class level.
type Experiment struct {
	Model           string   `yaml:"model"`
	ReasoningEffort string   `yaml:"reasoning_effort"`
	Emojis          []string `yaml:"emojis"`
	Tones           []string `yaml:"tones"`
	ModFrequency    int      `yaml:"mod_frequency"`
	InitialTrust    int      `yaml:"initial_trust"`
	Bots            []Bot    `yaml:"bots"`
}

type Bot struct {
	Kind         string  `yaml:"kind"` // participant | moderator | npc
	Seat         int     `yaml:"seat"`
	Color        string  `yaml:"color"`
	Temperature  float32 `yaml:"temperature"`
	Tone         string  `yaml:"tone"`   // optional per-bot tone override
	Schema       string  `yaml:"schema"` // base (default) | decision
	SystemPrompt string  `yaml:"system_prompt"`
}

func LoadExperiment(path string) (*Experiment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment file: %w", err)
	}
	var exp Experiment
	if err := yaml.Unmarshal(raw, &exp); err != nil {
		return nil, fmt.Errorf("parse experiment file: %w", err)
	}
	if err := exp.validate(); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (e *Experiment) validate() error {
	if e.Model == "" {
		return fmt.Errorf("experiment: model is required")
	}
	if len(e.Emojis) == 0 {
		return fmt.Errorf("experiment: at least one emoji is required")
	}
	if len(e.Tones) == 0 {
		return fmt.Errorf("experiment: at least one tone is required")
	}
	if e.ModFrequency == 0 {
		e.ModFrequency = chat.DefaultModFrequency
	}
	if len(e.Bots) == 0 {
		return fmt.Errorf("experiment: at least one bot is required")
	}
	for i, b := range e.Bots {
		if _, err := b.Profile(); err != nil {
			return fmt.Errorf("experiment: bot %d: %w", i, err)
		}
	}
	return nil
}

// Profile converts a YAML bot entry into the controller's typed profile.
// Kind strings map onto the explicit sender enum here and nowhere else.
func (b Bot) Profile() (chat.BotProfile, error) {
	var sender chat.Sender
	switch b.Kind {
	case "participant":
		seat := b.Seat
		if seat == 0 {
			seat = 1
		}
		sender = chat.ParticipantBot(seat)
	case "moderator":
		seat := b.Seat
		if seat == 0 {
			seat = 1
		}
		sender = chat.ModeratorBot(seat)
	case "npc":
		if b.Color == "" {
			return chat.BotProfile{}, fmt.Errorf("npc bot requires a color")
		}
		sender = chat.NamedNpc(b.Color)
	default:
		return chat.BotProfile{}, fmt.Errorf("unknown bot kind %q", b.Kind)
	}

	schema := llm.SchemaBase
	switch b.Schema {
	case "", "base":
	case "decision":
		schema = llm.SchemaDecision
	default:
		return chat.BotProfile{}, fmt.Errorf("unknown schema %q", b.Schema)
	}

	if b.SystemPrompt == "" {
		return chat.BotProfile{}, fmt.Errorf("system_prompt is required")
	}

	tone := b.Tone
	if tone == "" && b.Kind == "moderator" {
		tone = "moderator"
	}

	return chat.BotProfile{
		Sender:       sender,
		SystemPrompt: b.SystemPrompt,
		Temperature:  b.Temperature,
		Schema:       schema,
		ToneOverride: tone,
	}, nil
}

// Profiles returns every bot as a controller profile. Call after validate.
func (e *Experiment) Profiles() []chat.BotProfile {
	out := make([]chat.BotProfile, 0, len(e.Bots))
	for _, b := range e.Bots {
		p, err := b.Profile()
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
