package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
	"StockInsight/pkg/logger"
)

const (
	PredictionDisclaimer  = " This is not financial advice. All predictions are for informational purposes only."
	PredictionEmpty       = "AI-powered predictions are currently unavailable."
	PredictionUnavailable = "AI-powered predictions are currently unavailable at this time."
)

// Predictor writes a one-paragraph narrative for a live snapshot. It never
// fails: every error collapses into PredictionUnavailable.
type Predictor struct {
	gen     service.TextGenerator
	timeout time.Duration
	log     *logger.Logger
}

// NewPredictor accepts a nil generator; predictions are then always unavailable.
func NewPredictor(gen service.TextGenerator, timeout time.Duration, log *logger.Logger) *Predictor {
	return &Predictor{gen: gen, timeout: timeout, log: log.With(logger.String("component", "predictor"))}
}

// PredictionPrompt embeds the headline numbers and up to two news titles.
func PredictionPrompt(s models.StockSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a financial analyst. Based on the following data for %s (%s), "+
		"provide a short, one-paragraph prediction for the stock's future performance.\n", s.Name, s.Ticker)
	b.WriteString("Do not use markdown or formatting. Be concise.\n")
	fmt.Fprintf(&b, "Current Price: $%s\n", s.Price)
	fmt.Fprintf(&b, "Today's Change: %s (%s)\n", s.Change, s.ChangePercent)
	b.WriteString("Recent News:\n")
	for i, n := range s.News {
		if i == 2 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", n.Title)
	}
	return b.String()
}

func (p *Predictor) Predict(ctx context.Context, s models.StockSnapshot) string {
	if p.gen == nil {
		return PredictionUnavailable
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	text, err := p.gen.GenerateText(ctx, PredictionPrompt(s))
	if err != nil {
		p.log.Warn("prediction failed", logger.String("ticker", s.Ticker), logger.Error(err))
		return PredictionUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = PredictionEmpty
	}
	return text + PredictionDisclaimer
}
