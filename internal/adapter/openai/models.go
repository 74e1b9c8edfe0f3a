package openai

import "strings"

// Model capabilities that change the outbound request shape. Encoded as
// data so a new model family is a table entry, not another branch.
type capabilities struct {
	// tokenField names the token-limit parameter the model accepts.
	tokenField string
	// supportsTemperature is false for models that reject the knob.
	supportsTemperature bool
	// supportsWebSearch marks models that accept web_search_options.
	supportsWebSearch bool
}

const (
	fieldMaxTokens           = "max_tokens"
	fieldMaxCompletionTokens = "max_completion_tokens"
)

// Ordered prefix rules; the first match wins, so more specific prefixes
// come first. Anything unlisted gets the legacy defaults.
var modelRules = []struct {
	prefix string
	caps   capabilities
}{
	{"gpt-4o-search-preview", capabilities{tokenField: fieldMaxTokens, supportsTemperature: false, supportsWebSearch: true}},
	{"gpt-5", capabilities{tokenField: fieldMaxCompletionTokens, supportsTemperature: true, supportsWebSearch: false}},
}

var defaultCapabilities = capabilities{
	tokenField:          fieldMaxTokens,
	supportsTemperature: true,
	supportsWebSearch:   false,
}

func classify(model string) capabilities {
	for _, rule := range modelRules {
		if strings.HasPrefix(model, rule.prefix) {
			return rule.caps
		}
	}
	return defaultCapabilities
}
