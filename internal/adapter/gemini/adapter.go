package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"llm-bridge/internal/adapter"
	"llm-bridge/internal/canonical"
	geminiproto "llm-bridge/internal/proto/gemini"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// The only vendor with a temperature default: applied when the
	// caller leaves the knob unset.
	defaultTemperature = 0.7
)

// Adapter translates canonical requests into the Gemini generateContent
// shape. The vendor has no "assistant" role, so assistant turns become
// "model" and everything else conversational becomes "user"; the first
// system message moves to systemInstruction, later ones demote to user
// turns.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Vendor() canonical.Vendor { return canonical.VendorGoogle }

func (*Adapter) BuildRequest(req canonical.Request, creds adapter.Credentials) (adapter.OutboundRequest, error) {
	out := geminiproto.GenerateContentRequest{
		Contents: make([]geminiproto.Content, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		if m.Role == canonical.RoleSystem && out.SystemInstruction == nil {
			out.SystemInstruction = &geminiproto.Content{
				Parts: []geminiproto.Part{{Text: m.Content}},
			}
			continue
		}
		role := "user"
		if m.Role == canonical.RoleAssistant {
			role = "model"
		}
		out.Contents = append(out.Contents, geminiproto.Content{
			Role:  role,
			Parts: []geminiproto.Part{{Text: m.Content}},
		})
	}

	temp := defaultTemperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	out.GenerationConfig = &geminiproto.GenerationConfig{Temperature: &temp}
	if req.MaxTokens != nil {
		limit := *req.MaxTokens
		out.GenerationConfig.MaxOutputTokens = &limit
	}

	if len(req.Tools) > 0 {
		decls := make([]geminiproto.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, geminiproto.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		out.Tools = []geminiproto.Tool{{FunctionDeclarations: decls}}
	}

	body, err := json.Marshal(out)
	if err != nil {
		return adapter.OutboundRequest{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	header.Set("x-goog-api-key", strings.TrimSpace(creds.APIKey))

	return adapter.OutboundRequest{
		URL:    buildURL(creds.BaseURL, "/v1beta/models/"+req.Model+":generateContent"),
		Header: header,
		Body:   body,
	}, nil
}

func (*Adapter) ParseResponse(status int, body []byte) (canonical.Response, error) {
	if err := adapter.CheckStatus(status, body); err != nil {
		return canonical.Response{}, err
	}

	var vr geminiproto.GenerateContentResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return canonical.Response{}, canonical.ErrUpstreamEmpty("gemini: malformed response body")
	}
	if len(vr.Candidates) == 0 {
		return canonical.Response{}, canonical.ErrUpstreamEmpty("gemini: response has no candidates")
	}

	candidate := vr.Candidates[0]
	msg := canonical.AssistantMessage{Role: canonical.RoleAssistant}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, canonical.ToolCall{
				ID:        newToolCallID(),
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	msg.Content = text.String()

	resp := canonical.Response{
		Choices: []canonical.Choice{{
			Message:      msg,
			FinishReason: candidate.FinishReason,
		}},
	}
	if vr.UsageMetadata != nil {
		resp.Usage = canonical.Usage{
			PromptTokens:     vr.UsageMetadata.PromptTokenCount,
			CompletionTokens: vr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      vr.UsageMetadata.TotalTokenCount,
		}
	}
	return resp, nil
}

// newToolCallID synthesizes an id for vendor-issued calls that arrive
// without one. Random, so simultaneous calls in one candidate never
// collide.
func newToolCallID() string {
	return "call_" + uuid.NewString()
}

func buildURL(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1beta") {
		return base + strings.TrimPrefix(path, "/v1beta")
	}
	return base + path
}
