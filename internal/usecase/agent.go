package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/util"
)

const agentSystemPrompt = `You are a friendly and helpful financial AI assistant. Your name is Insight.
Your goal is to provide insightful, accurate, and easy-to-understand answers to questions about stocks, markets, and investment ideas.
You MUST use the tools provided (resolveStock, fetchNews) to gather real-time information to support your answers.
Do not provide financial advice. Always include a disclaimer that your answers are for informational purposes only.
Keep your answers concise and well-formatted. Use markdown for readability where appropriate.`

var ErrNoAgentBackend = errors.New("no agent backend configured")

// AgentError wraps any failure of the conversational backend.
type AgentError struct {
	Backend string
	Err     error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent (%s): %v", e.Backend, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// AgentTools is what the agent may call on the model's behalf.
type AgentTools interface {
	ResolveStock(ctx context.Context, ticker string) (models.StockSnapshot, error)
	FetchNews(ctx context.Context, topic string) ([]models.AnalyzedArticle, error)
}

// ServiceTools adapts the resolver and news analyzer to AgentTools.
type ServiceTools struct {
	Resolver *Resolver
	News     *NewsAnalyzer
}

func (t ServiceTools) ResolveStock(ctx context.Context, ticker string) (models.StockSnapshot, error) {
	return t.Resolver.Resolve(ctx, ticker), nil
}

func (t ServiceTools) FetchNews(ctx context.Context, topic string) ([]models.AnalyzedArticle, error) {
	return t.News.FetchAndAnalyze(ctx, topic)
}

var agentToolSpecs = []service.ToolSpec{
	{
		Name:        "resolveStock",
		Description: "Get the current price, daily change, fundamentals, chart history and recent news for a stock ticker.",
		Parameters: &service.Schema{
			Type: service.TypeObject,
			Properties: map[string]*service.Schema{
				"ticker": {Type: service.TypeString, Description: "The stock ticker symbol, e.g. AAPL."},
			},
			Required: []string{"ticker"},
		},
	},
	{
		Name:        "fetchNews",
		Description: "Fetch recent news articles for a topic with a summary and sentiment for each.",
		Parameters: &service.Schema{
			Type: service.TypeObject,
			Properties: map[string]*service.Schema{
				"topic": {Type: service.TypeString, Description: "The topic to search news for."},
			},
			Required: []string{"topic"},
		},
	},
}

type Agent struct {
	model    service.ChatModel
	tools    AgentTools
	maxTurns int
	log      *logger.Logger
}

// NewAgent accepts a nil model; Answer then fails with ErrNoAgentBackend.
func NewAgent(model service.ChatModel, tools AgentTools, maxTurns int, log *logger.Logger) *Agent {
	return &Agent{model: model, tools: tools, maxTurns: maxTurns, log: log.With(logger.String("component", "agent"))}
}

// Answer runs one conversational turn and returns the reply with a fresh
// conversation id.
func (a *Agent) Answer(ctx context.Context, query string) (models.AgentResponse, error) {
	if a.model == nil {
		return models.AgentResponse{}, &AgentError{Backend: "none", Err: ErrNoAgentBackend}
	}
	id := uuid.NewString()
	log := a.log.With(logger.String("conversation_id", id), logger.String("backend", a.model.Backend()))
	log.Debug("agent query", logger.String("query", util.Truncate(query, 120)))

	answer, err := a.model.Converse(ctx, service.Conversation{
		System:   agentSystemPrompt,
		Query:    query,
		Tools:    agentToolSpecs,
		Invoke:   a.invoke(log),
		MaxTurns: a.maxTurns,
	})
	if err != nil {
		log.Warn("agent failed", logger.Error(err))
		return models.AgentResponse{}, &AgentError{Backend: a.model.Backend(), Err: err}
	}
	return models.AgentResponse{Answer: answer, ConversationID: id}, nil
}

func (a *Agent) invoke(log *logger.Logger) service.ToolInvoker {
	return func(ctx context.Context, name string, args map[string]any) (any, error) {
		log.Debug("tool call", logger.String("tool", name), logger.Any("args", args))
		switch name {
		case "resolveStock":
			ticker := stringArg(args, "ticker")
			if ticker == "" {
				return nil, errors.New("ticker is required")
			}
			return a.tools.ResolveStock(ctx, ticker)
		case "fetchNews":
			topic := stringArg(args, "topic")
			if topic == "" {
				return nil, errors.New("topic is required")
			}
			articles, err := a.tools.FetchNews(ctx, topic)
			if err != nil {
				return nil, err
			}
			return map[string]any{"articles": articles}, nil
		}
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}
