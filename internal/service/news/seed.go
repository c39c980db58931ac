// Package news supplies raw articles for the sentiment pipeline.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockInsight/internal/domain/models"
)

// SeedSource returns a fixed set of four articles templated on the topic.
// It stands in for a real news API and never fails.
type SeedSource struct {
	now func() time.Time
}

func NewSeedSource() *SeedSource {
	return &SeedSource{now: time.Now}
}

func (s *SeedSource) Articles(ctx context.Context, topic string) ([]models.RawArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	year := s.now().Year()

	return []models.RawArticle{
		{
			Title:  fmt.Sprintf("AI Industry Sees Unprecedented Growth in %d", year),
			Source: "Tech Chronicle",
			URL:    "https://example.com/news/ai-growth",
			Content: "The AI industry has experienced a massive surge, with investments doubling in the last quarter. " +
				"Companies specializing in large language models and generative AI are leading the charge, with stock prices soaring. " +
				"Experts predict this trend will continue as adoption spreads across all sectors. " +
				"The impact on the job market remains a key point of discussion among policymakers. " +
				"Topic mentioned: " + topic + ".",
		},
		{
			Title:  "Regulatory Headwinds for Tech Giants",
			Source: "Global Financial News",
			URL:    "https://example.com/news/tech-regulation",
			Content: "Major technology firms are facing increased scrutiny from regulators worldwide. " +
				"Concerns over data privacy, market competition, and the spread of misinformation are leading to new, stricter laws. " +
				"This could potentially slow down innovation and impact profitability for companies in the " + topic + " space.",
		},
		{
			Title:  "Quantum Computing: The Next Frontier or Overhyped?",
			Source: "Science Today",
			URL:    "https://example.com/news/quantum-computing",
			Content: "While still in its nascent stages, quantum computing promises to revolutionize fields from medicine to finance. " +
				"However, significant technical challenges remain. " +
				"Some experts argue that practical, large-scale applications are still decades away, while others believe breakthroughs are just around the corner. " +
				"Investment in the sector is high, but so is the risk. " +
				"The discussion relates to the broader " + topic + " field.",
		},
		{
			Title:  "Market Reacts Neutrally to Latest Fed Announcement on " + topic,
			Source: "Economic Times",
			URL:    "https://example.com/news/fed-announcement",
			Content: "The Federal Reserve's latest announcement on interest rates has led to a mixed and largely neutral reaction in the markets. " +
				"While the statement was in line with expectations, investors are still cautiously observing inflation data. " +
				"The stability is seen as a good sign, but uncertainty about the long-term economic outlook for the " + topic + " sector persists.",
		},
	}, nil
}
