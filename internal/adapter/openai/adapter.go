package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"llm-bridge/internal/adapter"
	"llm-bridge/internal/canonical"
	openaiproto "llm-bridge/internal/proto/openai"
)

const defaultBaseURL = "https://api.openai.com"

// Adapter translates canonical requests into the OpenAI chat-completions
// shape. Messages pass through unchanged, system message included; only
// the token-limit field name and the sampling knobs vary by model.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Vendor() canonical.Vendor { return canonical.VendorOpenAI }

func (*Adapter) BuildRequest(req canonical.Request, creds adapter.Credentials) (adapter.OutboundRequest, error) {
	caps := classify(req.Model)

	out := openaiproto.ChatCompletionsRequest{
		Model:    req.Model,
		Messages: make([]openaiproto.ChatMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, openaiproto.ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	if req.MaxTokens != nil {
		limit := *req.MaxTokens
		switch caps.tokenField {
		case fieldMaxCompletionTokens:
			out.MaxCompletionTokens = &limit
		default:
			out.MaxTokens = &limit
		}
	}
	if req.Temperature != nil && caps.supportsTemperature {
		temp := *req.Temperature
		out.Temperature = &temp
	}
	if req.WebAccess && caps.supportsWebSearch {
		out.WebSearchOptions = json.RawMessage(`{}`)
	}

	if len(req.Tools) > 0 {
		out.Tools = make([]openaiproto.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			out.Tools = append(out.Tools, openaiproto.Tool{
				Type: "function",
				Function: openaiproto.FunctionDef{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		out.ToolChoice = json.RawMessage(`"auto"`)
	}

	body, err := json.Marshal(out)
	if err != nil {
		return adapter.OutboundRequest{}, fmt.Errorf("marshal openai request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	header.Set("Authorization", "Bearer "+strings.TrimSpace(creds.APIKey))

	return adapter.OutboundRequest{
		URL:    buildURL(creds.BaseURL, "/v1/chat/completions"),
		Header: header,
		Body:   body,
	}, nil
}

func (*Adapter) ParseResponse(status int, body []byte) (canonical.Response, error) {
	if err := adapter.CheckStatus(status, body); err != nil {
		return canonical.Response{}, err
	}

	var vr openaiproto.ChatCompletionsResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return canonical.Response{}, canonical.ErrUpstreamEmpty("openai: malformed response body")
	}
	if len(vr.Choices) == 0 {
		return canonical.Response{}, canonical.ErrUpstreamEmpty("openai: response has no choices")
	}

	resp := canonical.Response{
		Choices: make([]canonical.Choice, 0, len(vr.Choices)),
	}
	for _, c := range vr.Choices {
		msg := canonical.AssistantMessage{
			Role:    canonical.RoleAssistant,
			Content: c.Message.Content,
		}
		for _, tc := range c.Message.ToolCalls {
			args := strings.TrimSpace(tc.Function.Arguments)
			if args == "" {
				args = "{}"
			}
			msg.ToolCalls = append(msg.ToolCalls, canonical.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(args),
			})
		}
		resp.Choices = append(resp.Choices, canonical.Choice{
			Message:      msg,
			FinishReason: c.FinishReason,
		})
	}
	if vr.Usage != nil {
		resp.Usage = canonical.Usage{
			PromptTokens:     vr.Usage.PromptTokens,
			CompletionTokens: vr.Usage.CompletionTokens,
			TotalTokens:      vr.Usage.TotalTokens,
		}
	}
	return resp, nil
}

func buildURL(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + strings.TrimPrefix(path, "/v1")
	}
	return base + path
}
