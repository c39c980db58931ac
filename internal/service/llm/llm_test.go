package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
	"StockInsight/pkg/config"
	"StockInsight/pkg/logger"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", "Here you go: {\"a\":{\"b\":2}} hope it helps", `{"a":{"b":2}}`},
		{"no object", "nothing", "nothing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.in))
		})
	}
}

func TestToGenaiSchema(t *testing.T) {
	s := &service.Schema{
		Type: service.TypeObject,
		Properties: map[string]*service.Schema{
			"sentiment": {Type: service.TypeString, Enum: []string{"Positive", "Negative", "Neutral"}},
			"tags":      {Type: service.TypeArray, Items: &service.Schema{Type: service.TypeString}},
		},
		Required: []string{"sentiment"},
	}

	got := toGenaiSchema(s)
	require.NotNil(t, got)
	assert.Equal(t, genai.TypeObject, got.Type)
	assert.Equal(t, []string{"sentiment"}, got.Required)
	assert.Equal(t, genai.TypeString, got.Properties["sentiment"].Type)
	assert.Len(t, got.Properties["sentiment"].Enum, 3)
	assert.Equal(t, genai.TypeArray, got.Properties["tags"].Type)
	assert.Equal(t, genai.TypeString, got.Properties["tags"].Items.Type)
	assert.Nil(t, toGenaiSchema(nil))
}

func TestToolPayload(t *testing.T) {
	assert.Equal(t, map[string]any{"output": 3}, toolPayload(3, nil))
	assert.Equal(t, map[string]any{"error": "boom"}, toolPayload(nil, errors.New("boom")))
}

func TestClaudeTools(t *testing.T) {
	tools := claudeTools([]service.ToolSpec{{
		Name:        "resolveStock",
		Description: "Look up a stock",
		Parameters: &service.Schema{
			Type:       service.TypeObject,
			Properties: map[string]*service.Schema{"ticker": {Type: service.TypeString}},
			Required:   []string{"ticker"},
		},
	}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "resolveStock", tools[0].OfTool.Name)
	assert.Equal(t, []string{"ticker"}, tools[0].OfTool.InputSchema.Required)
}

type recordingMetrics struct {
	calls []string
}

func (r *recordingMetrics) RecordProviderAttempt(string, string, float64) {}
func (r *recordingMetrics) RecordResolution(models.DataSource)            {}
func (r *recordingMetrics) RecordLLMCall(op, backend string, _ float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.calls = append(r.calls, op+"/"+backend+"/"+outcome)
}
func (r *recordingMetrics) RecordEventExported(string)      {}
func (r *recordingMetrics) RecordError(string)              {}
func (r *recordingMetrics) RecordLastPrice(string, float64) {}
func (r *recordingMetrics) RecordLatency(string, float64)   {}

type stubBackend struct {
	text string
	err  error
}

func (s stubBackend) Backend() string { return "stub" }
func (s stubBackend) GenerateText(context.Context, string) (string, error) {
	return s.text, s.err
}
func (s stubBackend) GenerateJSON(context.Context, service.StructuredRequest, any) error {
	return s.err
}
func (s stubBackend) Converse(context.Context, service.Conversation) (string, error) {
	return s.text, s.err
}

func TestInstrumentedRecordsOutcome(t *testing.T) {
	m := &recordingMetrics{}
	ok := instrument(stubBackend{text: "hi"}, m)
	bad := instrument(stubBackend{err: errors.New("down")}, m)

	text, err := ok.GenerateText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
	_, err = bad.Converse(context.Background(), service.Conversation{})
	assert.Error(t, err)
	assert.Error(t, bad.GenerateJSON(context.Background(), service.StructuredRequest{}, nil))

	assert.Equal(t, []string{"text/stub/ok", "chat/stub/error", "json/stub/error"}, m.calls)
}

func TestNewSelectsBackends(t *testing.T) {
	ctx := context.Background()
	base := config.LLMConfig{GeminiModel: "gemini-2.0-flash", ClaudeModel: "claude-sonnet-4-20250514", MaxTokens: 512}

	b, err := New(ctx, base, nil, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, b.Text)
	assert.Nil(t, b.Structured)
	assert.Nil(t, b.Chat)

	onlyClaude := base
	onlyClaude.AnthropicAPIKey = "sk-test"
	b, err = New(ctx, onlyClaude, nil, logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, b.Chat)
	assert.Equal(t, "claude", b.Chat.Backend())
	assert.NotNil(t, b.Text)

	both := onlyClaude
	both.GeminiAPIKey = "g-test"
	b, err = New(ctx, both, nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "claude", b.Chat.Backend())
	assert.Equal(t, "gemini", b.Text.(*instrumented).Backend())

	onlyGemini := base
	onlyGemini.GeminiAPIKey = "g-test"
	b, err = New(ctx, onlyGemini, nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gemini", b.Chat.Backend())
}
