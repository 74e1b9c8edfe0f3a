package gemini

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"llm-bridge/internal/adapter"
	"llm-bridge/internal/canonical"
)

func TestBuildRequest_RoleRemapAndSystemInstruction(t *testing.T) {
	out, err := New().BuildRequest(canonical.Request{
		Vendor: canonical.VendorGoogle,
		Model:  "gemini-2.0-flash",
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Content: "be terse"},
			{Role: canonical.RoleUser, Content: "hi"},
			{Role: canonical.RoleAssistant, Content: "hello"},
		},
	}, adapter.Credentials{APIKey: "g-test"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	var body struct {
		SystemInstruction *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
		Contents []struct {
			Role string `json:"role"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(out.Body, &body); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text != "be terse" {
		t.Fatalf("expected system moved to systemInstruction, got %#v", body.SystemInstruction)
	}
	if len(body.Contents) != 2 {
		t.Fatalf("expected 2 conversational contents, got %#v", body.Contents)
	}
	if body.Contents[0].Role != "user" || body.Contents[1].Role != "model" {
		t.Fatalf("assistant must remap to model, got %#v", body.Contents)
	}
}

func TestBuildRequest_GenerationConfigDefaults(t *testing.T) {
	limit := 256
	out, err := New().BuildRequest(canonical.Request{
		Vendor:    canonical.VendorGoogle,
		Model:     "gemini-2.0-flash",
		Messages:  []canonical.Message{{Role: canonical.RoleUser, Content: "hi"}},
		MaxTokens: &limit,
	}, adapter.Credentials{APIKey: "g-test"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	var body struct {
		GenerationConfig struct {
			Temperature     *float64 `json:"temperature"`
			MaxOutputTokens *int     `json:"maxOutputTokens"`
		} `json:"generationConfig"`
	}
	if err := json.Unmarshal(out.Body, &body); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if body.GenerationConfig.Temperature == nil || *body.GenerationConfig.Temperature != 0.7 {
		t.Fatalf("expected temperature default 0.7, got %#v", body.GenerationConfig.Temperature)
	}
	if body.GenerationConfig.MaxOutputTokens == nil || *body.GenerationConfig.MaxOutputTokens != 256 {
		t.Fatalf("expected maxOutputTokens 256, got %#v", body.GenerationConfig.MaxOutputTokens)
	}
}

func TestBuildRequest_CallerTemperatureWins(t *testing.T) {
	temp := 0.1
	out, err := New().BuildRequest(canonical.Request{
		Vendor:      canonical.VendorGoogle,
		Model:       "gemini-2.0-flash",
		Messages:    []canonical.Message{{Role: canonical.RoleUser, Content: "hi"}},
		Temperature: &temp,
	}, adapter.Credentials{APIKey: "g-test"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	var body struct {
		GenerationConfig struct {
			Temperature float64 `json:"temperature"`
		} `json:"generationConfig"`
	}
	if err := json.Unmarshal(out.Body, &body); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if body.GenerationConfig.Temperature != 0.1 {
		t.Fatalf("caller temperature must not be overridden, got %v", body.GenerationConfig.Temperature)
	}
}

func TestBuildRequest_FunctionDeclarationsAndURL(t *testing.T) {
	out, err := New().BuildRequest(canonical.Request{
		Vendor:   canonical.VendorGoogle,
		Model:    "gemini-2.0-flash",
		Messages: []canonical.Message{{Role: canonical.RoleUser, Content: "hi"}},
		Tools: []canonical.FunctionSpec{{
			Name:       "get_weather",
			Parameters: json.RawMessage(`{"type":"object"}`),
		}},
	}, adapter.Credentials{APIKey: "g-test"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	if out.URL != want {
		t.Fatalf("unexpected url: %s", out.URL)
	}
	if out.Header.Get("x-goog-api-key") != "g-test" {
		t.Fatalf("unexpected headers: %#v", out.Header)
	}
	var body struct {
		Tools []struct {
			FunctionDeclarations []struct {
				Name string `json:"name"`
			} `json:"functionDeclarations"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(out.Body, &body); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if len(body.Tools) != 1 || len(body.Tools[0].FunctionDeclarations) != 1 || body.Tools[0].FunctionDeclarations[0].Name != "get_weather" {
		t.Fatalf("unexpected tools shape: %#v", body.Tools)
	}
}

func TestParseResponse_SynthesizedToolCallIDsAreUnique(t *testing.T) {
	fixture := `{
		"candidates": [{
			"content": {
				"role": "model",
				"parts": [
					{"functionCall": {"name": "get_weather", "args": {"location": "SF"}}},
					{"functionCall": {"name": "get_time", "args": {"zone": "PST"}}}
				]
			},
			"finishReason": "STOP"
		}]
	}`
	resp, err := New().ParseResponse(200, []byte(fixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) != 2 {
		t.Fatalf("expected 2 tool calls, got %#v", calls)
	}
	if calls[0].ID == calls[1].ID {
		t.Fatalf("simultaneous tool calls must get distinct ids, both %q", calls[0].ID)
	}
	for _, c := range calls {
		if !strings.HasPrefix(c.ID, "call_") || len(c.ID) <= len("call_") {
			t.Fatalf("unexpected synthesized id: %q", c.ID)
		}
	}
	if resp.Choices[0].FinishReason != "STOP" {
		t.Fatalf("finishReason must pass through verbatim, got %q", resp.Choices[0].FinishReason)
	}
}

func TestParseResponse_TextPartsConcatenate(t *testing.T) {
	fixture := `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": "4"}, {"text": ", obviously"}]},
			"finishReason": "STOP"
		}],
		"usageMetadata": {"promptTokenCount": 8, "candidatesTokenCount": 3, "totalTokenCount": 11}
	}`
	resp, err := New().ParseResponse(200, []byte(fixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if resp.Choices[0].Message.Content != "4, obviously" {
		t.Fatalf("unexpected content: %q", resp.Choices[0].Message.Content)
	}
	if resp.Usage.TotalTokens != 11 {
		t.Fatalf("unexpected usage: %#v", resp.Usage)
	}

	again, err := New().ParseResponse(200, []byte(fixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !reflect.DeepEqual(resp, again) {
		t.Fatalf("repeated parse of a text-only fixture differs:\n%#v\n%#v", resp, again)
	}
}

func TestParseResponse_NoCandidates(t *testing.T) {
	_, err := New().ParseResponse(200, []byte(`{"candidates":[]}`))
	e, ok := canonical.AsError(err)
	if !ok || e.Kind != canonical.KindUpstreamEmptyResponse {
		t.Fatalf("expected empty-response error, got %v", err)
	}
}

func TestParseResponse_NonSuccessStatus(t *testing.T) {
	_, err := New().ParseResponse(429, []byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	e, ok := canonical.AsError(err)
	if !ok || e.Kind != canonical.KindUpstreamRejected {
		t.Fatalf("expected upstream rejection, got %v", err)
	}
	if e.HTTPStatus != 429 || e.VendorMessage != "quota exceeded" {
		t.Fatalf("status and message must be preserved, got %#v", e)
	}
}
