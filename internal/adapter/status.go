package adapter

import (
	"encoding/json"
	"strings"

	"llm-bridge/internal/canonical"
)

const maxSnippetLen = 512

// CheckStatus returns the upstream-rejected error for a non-2xx vendor
// status, carrying the original status code and a best-effort vendor
// message pulled from the error body. Adapters call it before touching
// the body as a success payload.
func CheckStatus(status int, body []byte) *canonical.Error {
	if status >= 200 && status < 300 {
		return nil
	}
	return canonical.ErrUpstreamRejected(status, VendorMessage(body))
}

// VendorMessage extracts the human-readable message from a vendor error
// body. All three vendors nest it under error.message (Anthropic wraps
// it once more in a typed envelope but keeps the same path). Falls back
// to a trimmed snippet of the raw body.
func VendorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := strings.TrimSpace(envelope.Error.Message); msg != "" {
			return msg
		}
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxSnippetLen {
		snippet = snippet[:maxSnippetLen]
	}
	return snippet
}
