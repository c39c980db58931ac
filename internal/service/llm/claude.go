package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"StockInsight/internal/domain/service"
)

// Claude serves the same interfaces through the Anthropic Messages API.
// Structured output is requested by embedding the schema in the system prompt.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

func NewClaude(apiKey, model string, maxTokens int, timeout time.Duration, opts ...option.RequestOption) *Claude {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
	}
}

func (c *Claude) Backend() string { return "claude" }

func (c *Claude) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Claude) params(system string, messages []anthropic.MessageParam) anthropic.MessageNewParams {
	p := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  messages,
	}
	if system != "" {
		p.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return p
}

func textOf(msg *anthropic.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func (c *Claude) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msg, err := c.client.Messages.New(ctx, c.params("", []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}))
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}
	return textOf(msg), nil
}

func (c *Claude) GenerateJSON(ctx context.Context, req service.StructuredRequest, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	system := strings.TrimSpace(req.System + "\n\nRespond with a single JSON object and nothing else. " +
		"It must validate against this JSON Schema:\n" + jsonSchema(req.Schema))

	msg, err := c.client.Messages.New(ctx, c.params(system, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}))
	if err != nil {
		return fmt.Errorf("claude messages: %w", err)
	}
	text := textOf(msg)
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), out); err != nil {
		return fmt.Errorf("decode claude json: %w", err)
	}
	return nil
}

func claudeTools(specs []service.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, t := range specs {
		schema := anthropic.ToolInputSchemaParam{}
		if t.Parameters != nil {
			props := make(map[string]any, len(t.Parameters.Properties))
			for k, v := range t.Parameters.Properties {
				props[k] = v
			}
			schema.Properties = props
			schema.Required = t.Parameters.Required
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}})
	}
	return tools
}

// Converse runs the tool_use loop: every tool_use block is answered with a
// tool_result in the next user turn until Claude stops asking for tools.
func (c *Claude) Converse(ctx context.Context, conv service.Conversation) (string, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(conv.Query)),
	}
	tools := claudeTools(conv.Tools)

	for turn := 0; turn < max(conv.MaxTurns, 1); turn++ {
		p := c.params(conv.System, messages)
		p.Tools = tools

		msg, err := c.client.Messages.New(ctx, p)
		if err != nil {
			return "", fmt.Errorf("claude messages: %w", err)
		}
		messages = append(messages, msg.ToParam())

		var results []anthropic.ContentBlockParamUnion
		for _, block := range msg.Content {
			if block.Type != "tool_use" {
				continue
			}
			var args map[string]any
			if len(block.Input) > 0 {
				_ = json.Unmarshal(block.Input, &args)
			}
			out, callErr := conv.Invoke(ctx, block.Name, args)
			payload, _ := json.Marshal(toolPayload(out, callErr))
			results = append(results, anthropic.NewToolResultBlock(block.ID, string(payload), callErr != nil))
		}

		if len(results) == 0 {
			text := textOf(msg)
			if text == "" {
				return "", ErrEmptyResponse
			}
			return text, nil
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}
	return "", ErrMaxTurns
}
