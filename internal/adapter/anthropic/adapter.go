package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"llm-bridge/internal/adapter"
	"llm-bridge/internal/canonical"
	anthropicproto "llm-bridge/internal/proto/anthropic"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	// The vendor requires max_tokens; this is the fallback when the
	// caller leaves it unset.
	defaultMaxTokens = 2000
)

// Adapter translates canonical requests into the Anthropic messages
// shape. The message list has no system slot: the first system message
// moves to the top-level system field, any later ones are demoted to
// user turns so their content is not dropped.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Vendor() canonical.Vendor { return canonical.VendorAnthropic }

func (*Adapter) BuildRequest(req canonical.Request, creds adapter.Credentials) (adapter.OutboundRequest, error) {
	out := anthropicproto.MessageCreateRequest{
		Model:     req.Model,
		MaxTokens: defaultMaxTokens,
		Messages:  make([]anthropicproto.Message, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		if m.Role == canonical.RoleSystem && out.System == "" {
			out.System = m.Content
			continue
		}
		role := "user"
		if m.Role == canonical.RoleAssistant {
			role = "assistant"
		}
		out.Messages = append(out.Messages, anthropicproto.Message{
			Role:    role,
			Content: m.Content,
		})
	}

	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		temp := *req.Temperature
		out.Temperature = &temp
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, anthropicproto.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}

	body, err := json.Marshal(out)
	if err != nil {
		return adapter.OutboundRequest{}, fmt.Errorf("marshal anthropic request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	header.Set("anthropic-version", apiVersion)
	header.Set("x-api-key", strings.TrimSpace(creds.APIKey))

	return adapter.OutboundRequest{
		URL:    buildURL(creds.BaseURL),
		Header: header,
		Body:   body,
	}, nil
}

func (*Adapter) ParseResponse(status int, body []byte) (canonical.Response, error) {
	if err := adapter.CheckStatus(status, body); err != nil {
		return canonical.Response{}, err
	}

	var vr anthropicproto.MessageResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return canonical.Response{}, canonical.ErrUpstreamEmpty("anthropic: malformed response body")
	}
	if len(vr.Content) == 0 {
		return canonical.Response{}, canonical.ErrUpstreamEmpty("anthropic: response has no content blocks")
	}

	msg := canonical.AssistantMessage{Role: canonical.RoleAssistant}
	var text strings.Builder
	for _, blk := range vr.Content {
		switch blk.Type {
		case "text":
			text.WriteString(blk.Text)
		case "tool_use":
			args := blk.Input
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, canonical.ToolCall{
				ID:        blk.ID,
				Name:      blk.Name,
				Arguments: args,
			})
		}
	}
	msg.Content = text.String()

	return canonical.Response{
		Choices: []canonical.Choice{{
			Message:      msg,
			FinishReason: vr.StopReason,
		}},
		Usage: canonical.Usage{
			PromptTokens:     vr.Usage.InputTokens,
			CompletionTokens: vr.Usage.OutputTokens,
			TotalTokens:      vr.Usage.InputTokens + vr.Usage.OutputTokens,
		},
	}, nil
}

func buildURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/messages"
	}
	return base + "/v1/messages"
}
