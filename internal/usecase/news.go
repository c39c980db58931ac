package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/internal/domain/service"
	"StockInsight/pkg/logger"
)

// SummaryPlaceholder replaces a summary the model could not produce.
const SummaryPlaceholder = "Could not generate summary."

var articleSchema = &service.Schema{
	Type: service.TypeObject,
	Properties: map[string]*service.Schema{
		"summary": {
			Type:        service.TypeString,
			Description: "A concise, one-paragraph summary of the article.",
		},
		"sentiment": {
			Type:        service.TypeString,
			Description: "The overall sentiment of the article.",
			Enum:        models.SentimentLabels(),
		},
	},
	Required: []string{"summary", "sentiment"},
}

type articleAnalysis struct {
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
}

// NewsAnalyzer fetches articles for a topic and classifies each one.
type NewsAnalyzer struct {
	source  repository.ArticleSource
	gen     service.StructuredGenerator
	timeout time.Duration
	log     *logger.Logger
}

func NewNewsAnalyzer(source repository.ArticleSource, gen service.StructuredGenerator, timeout time.Duration, log *logger.Logger) *NewsAnalyzer {
	return &NewsAnalyzer{source: source, gen: gen, timeout: timeout, log: log.With(logger.String("component", "news"))}
}

func articlePrompt(a models.RawArticle) string {
	return fmt.Sprintf("Analyze the following news article:\n\nTitle: %s\nContent: %s\n\n"+
		"Based on the content, provide a concise, one-paragraph summary and determine if the overall "+
		"sentiment is Positive, Negative, or Neutral.", a.Title, a.Content)
}

// FetchAndAnalyze classifies all articles concurrently. Output order follows
// the source order. Only a source failure is returned as an error.
func (n *NewsAnalyzer) FetchAndAnalyze(ctx context.Context, topic string) ([]models.AnalyzedArticle, error) {
	raw, err := n.source.Articles(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("fetch articles for %q: %w", topic, err)
	}

	out := make([]models.AnalyzedArticle, len(raw))
	var wg sync.WaitGroup
	for i, a := range raw {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = n.analyze(ctx, a)
		}()
	}
	wg.Wait()
	return out, nil
}

func (n *NewsAnalyzer) analyze(ctx context.Context, a models.RawArticle) models.AnalyzedArticle {
	result := models.AnalyzedArticle{
		Title:     a.Title,
		Source:    a.Source,
		URL:       a.URL,
		Summary:   SummaryPlaceholder,
		Sentiment: models.SentimentNeutral,
	}
	if n.gen == nil {
		return result
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	var analysis articleAnalysis
	err := n.gen.GenerateJSON(ctx, service.StructuredRequest{Prompt: articlePrompt(a), Schema: articleSchema}, &analysis)
	if err != nil {
		n.log.Warn("article classification failed", logger.String("title", a.Title), logger.Error(err))
		return result
	}

	if analysis.Summary != "" {
		result.Summary = analysis.Summary
	}
	if s := models.Sentiment(analysis.Sentiment); s.Valid() {
		result.Sentiment = s
	} else {
		n.log.Debug("unexpected sentiment label", logger.String("label", analysis.Sentiment))
	}
	return result
}
