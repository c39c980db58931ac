package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"StockInsight/internal/domain/service"
)

// Gemini serves text, structured and tool-calling generation through the Gemini API.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
	timeout   time.Duration
}

func NewGemini(ctx context.Context, apiKey, model string, maxTokens int, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, maxTokens: int32(maxTokens), timeout: timeout}, nil
}

func (g *Gemini) Backend() string { return "gemini" }

func (g *Gemini) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{MaxOutputTokens: g.maxTokens},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func (g *Gemini) GenerateJSON(ctx context.Context, req service.StructuredRequest, out any) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  g.maxTokens,
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.Schema),
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), out); err != nil {
		return fmt.Errorf("decode gemini json: %w", err)
	}
	return nil
}

// Converse drives a chat session, answering every function call with the
// invoker's result until the model replies with text.
func (g *Gemini) Converse(ctx context.Context, conv service.Conversation) (string, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(conv.Tools))
	for _, t := range conv.Tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGenaiSchema(t.Parameters),
		})
	}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:   g.maxTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: conv.System}}},
	}
	if len(decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	chat, err := g.client.Chats.Create(ctx, g.model, cfg, nil)
	if err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}

	parts := []*genai.Part{{Text: conv.Query}}
	for turn := 0; turn < max(conv.MaxTurns, 1); turn++ {
		resp, err := chat.Send(ctx, parts...)
		if err != nil {
			return "", fmt.Errorf("gemini chat send: %w", err)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if text == "" {
				return "", ErrEmptyResponse
			}
			return text, nil
		}

		parts = make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			out, err := conv.Invoke(ctx, call.Name, call.Args)
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: toolPayload(out, err),
			}})
		}
	}
	return "", ErrMaxTurns
}
