package llm

import (
	"context"
	"time"

	"StockInsight/internal/domain/repository"
	"StockInsight/internal/domain/service"
	"StockInsight/pkg/config"
	"StockInsight/pkg/logger"
)

// Backends groups the generators handed to the use cases. Any field may be
// nil when no credential is configured for it.
type Backends struct {
	Text       service.TextGenerator
	Structured service.StructuredGenerator
	Chat       service.ChatModel
}

// New builds the configured backends. Text and structured generation prefer
// Gemini; the agent prefers Claude when an Anthropic key is set.
func New(ctx context.Context, cfg config.LLMConfig, metrics repository.Metrics, log *logger.Logger) (Backends, error) {
	var (
		gemini *Gemini
		claude *Claude
		err    error
	)
	if cfg.GeminiAPIKey != "" {
		gemini, err = NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens, cfg.Timeout)
		if err != nil {
			return Backends{}, err
		}
	}
	if cfg.AnthropicAPIKey != "" {
		claude = NewClaude(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.MaxTokens, cfg.Timeout)
	}

	var b Backends
	switch {
	case gemini != nil:
		b.Text, b.Structured = instrument(gemini, metrics), instrument(gemini, metrics)
	case claude != nil:
		b.Text, b.Structured = instrument(claude, metrics), instrument(claude, metrics)
	}
	switch {
	case claude != nil:
		b.Chat = instrument(claude, metrics)
	case gemini != nil:
		b.Chat = instrument(gemini, metrics)
	}

	log.Info("llm backends configured",
		logger.Bool("gemini", gemini != nil),
		logger.Bool("claude", claude != nil),
		logger.String("agent", backendName(b.Chat)),
	)
	return b, nil
}

func backendName(m service.ChatModel) string {
	if m == nil {
		return "none"
	}
	return m.Backend()
}

type backend interface {
	service.TextGenerator
	service.StructuredGenerator
	service.ChatModel
}

// instrumented records latency and outcome of every model call.
type instrumented struct {
	next    backend
	metrics repository.Metrics
}

func instrument(b backend, m repository.Metrics) *instrumented {
	return &instrumented{next: b, metrics: m}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	if i.metrics != nil {
		i.metrics.RecordLLMCall(op, i.next.Backend(), time.Since(start).Seconds(), err)
	}
}

func (i *instrumented) Backend() string { return i.next.Backend() }

func (i *instrumented) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.next.GenerateText(ctx, prompt)
	i.observe("text", start, err)
	return text, err
}

func (i *instrumented) GenerateJSON(ctx context.Context, req service.StructuredRequest, out any) error {
	start := time.Now()
	err := i.next.GenerateJSON(ctx, req, out)
	i.observe("json", start, err)
	return err
}

func (i *instrumented) Converse(ctx context.Context, conv service.Conversation) (string, error) {
	start := time.Now()
	text, err := i.next.Converse(ctx, conv)
	i.observe("chat", start, err)
	return text, err
}
