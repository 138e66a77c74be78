package llm

import "strings"

// Capability declares which optional request parameters a model accepts.
// Sending temperature to a model that rejects it (or reasoning effort to a
// non-reasoning family) fails the whole call, so the client consults this
// table instead of guessing from the model string at call sites.
type Capability struct {
	Temperature bool
	Reasoning   bool
}

var capabilityByModel = map[string]Capability{
	"gpt-4o":       {Temperature: true},
	"gpt-4o-mini":  {Temperature: true},
	"gpt-4.1":      {Temperature: true},
	"gpt-4.1-mini": {Temperature: true},
	"gpt-5":        {Reasoning: true},
	"gpt-5-mini":   {Reasoning: true},
	"gpt-5-nano":   {Reasoning: true},
}

// ModelCapability looks up a model's capability flags, falling back to a
// family-prefix match for dated snapshot names like gpt-4o-2024-08-06.
func ModelCapability(model string) Capability {
	if c, ok := capabilityByModel[model]; ok {
		return c
	}
	best := ""
	var found Capability
	for prefix, c := range capabilityByModel {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
			found = c
		}
	}
	return found
}
