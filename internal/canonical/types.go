package canonical

import "encoding/json"

// Vendor identifies an upstream chat-completion provider. The set is
// closed: the dispatcher registers exactly one adapter per vendor.
type Vendor string

const (
	VendorOpenAI    Vendor = "openai"
	VendorAnthropic Vendor = "anthropic"
	VendorGoogle    Vendor = "google"
)

func (v Vendor) Known() bool {
	switch v {
	case VendorOpenAI, VendorAnthropic, VendorGoogle:
		return true
	}
	return false
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Request is the vendor-neutral chat-completion request. Adapters
// translate it into each vendor's wire shape; nothing downstream of the
// dispatcher sees vendor-specific fields.
type Request struct {
	Vendor      Vendor         `json:"provider"`
	Model       string         `json:"model"`
	Messages    []Message      `json:"messages"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	WebAccess   bool           `json:"web_access,omitempty"`
	Tools       []FunctionSpec `json:"functions,omitempty"`
}

// Message is one turn of conversation history. Ordering is significant
// and preserved end to end.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FunctionSpec describes a tool the model may call. Parameters holds a
// JSON-Schema object passed through untouched. Names are assumed unique
// within one request.
type FunctionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Response is the vendor-neutral result. Choices has at least one entry
// on success; Usage fields are zero, never absent, when the vendor does
// not report them.
type Response struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message AssistantMessage `json:"message"`
	// FinishReason is vendor-scoped and passed through verbatim. The
	// vendors' stop vocabularies are not in 1:1 correspondence, so no
	// unification is attempted.
	FinishReason string `json:"finish_reason,omitempty"`
}

type AssistantMessage struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a model-issued invocation of a named function. Arguments
// holds the JSON argument object. For vendors that do not assign call
// ids the adapter synthesizes one.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
