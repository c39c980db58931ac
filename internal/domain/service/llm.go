package service

import "context"

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// StructuredGenerator produces a JSON object matching req.Schema and decodes it into out.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, req StructuredRequest, out any) error
}

// ChatModel runs a tool-calling conversation until the model produces a final answer.
type ChatModel interface {
	Backend() string
	Converse(ctx context.Context, conv Conversation) (string, error)
}

type StructuredRequest struct {
	System string
	Prompt string
	Schema *Schema
}

// Schema is a provider-neutral JSON schema subset, translated by each backend.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeArray   = "array"
	TypeBoolean = "boolean"
)

type ToolSpec struct {
	Name        string
	Description string
	Parameters  *Schema
}

// ToolInvoker executes a tool the model asked for. Errors are reported back to
// the model as a tool error rather than ending the conversation.
type ToolInvoker func(ctx context.Context, name string, args map[string]any) (any, error)

type Conversation struct {
	System   string
	Query    string
	Tools    []ToolSpec
	Invoke   ToolInvoker
	MaxTurns int
}
