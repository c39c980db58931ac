package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
	"StockInsight/pkg/logger"
)

var ErrNoAnalysisBackend = errors.New("no analysis backend configured")

const sectorPrompt = `You are an expert financial market analyst. Your task is to conduct a deep and insightful analysis of the following market sector: %s.

Provide a comprehensive but concise report covering the following areas. Each area should be a detailed paragraph.

1. Key Players: Identify the major companies and key players that dominate this sector. Mention their roles and market share if possible.
2. Recent Trends: Analyze the most significant recent developments and trends affecting the sector. This could include technological advancements, regulatory changes, consumer behavior shifts, or major market events.
3. Future Outlook: Provide a forecast of the sector's potential future performance. Discuss potential growth drivers, challenges, and disruptive forces on the horizon.
4. Investment Summary: Give a concluding summary highlighting the main opportunities and risks associated with investing in this sector.`

const relationsPrompt = `You are an expert financial analyst specializing in discovering hidden relationships between financial assets.

You will analyze the provided list of assets and identify non-obvious, valuable insights based on the specified analysis type.

Assets: %s
Analysis Type: %s

Based on your analysis, provide the following:

- A description of the cross-asset relations discovered, including specific assets and their relationships.
- A confidence score (0-1) indicating the reliability of the discovered relations.
- An explanation of the discovered relations, including factors driving the relationships.`

var sectorSchema = &service.Schema{
	Type: service.TypeObject,
	Properties: map[string]*service.Schema{
		"keyPlayers":        {Type: service.TypeString, Description: "A paragraph identifying the major companies and key players in this sector."},
		"recentTrends":      {Type: service.TypeString, Description: "An analysis of the most significant recent developments and trends affecting the sector."},
		"futureOutlook":     {Type: service.TypeString, Description: "A forecast of the sector's potential future performance and key factors to watch."},
		"investmentSummary": {Type: service.TypeString, Description: "A concluding summary of the opportunities and risks associated with investing in this sector."},
	},
	Required: []string{"keyPlayers", "recentTrends", "futureOutlook", "investmentSummary"},
}

var relationsSchema = &service.Schema{
	Type: service.TypeObject,
	Properties: map[string]*service.Schema{
		"relations":       {Type: service.TypeString, Description: "The cross-asset relations discovered."},
		"confidenceScore": {Type: service.TypeNumber, Description: "A confidence score (0-1) indicating the reliability of the discovered relations."},
		"explanation":     {Type: service.TypeString, Description: "An explanation of the factors driving the relations."},
	},
	Required: []string{"relations", "confidenceScore", "explanation"},
}

// MoverSource produces market movers.
type MoverSource interface {
	Movers(count int, dir models.MoverDirection) []models.MarketMover
}

// MarketAnalyst serves the sector and cross-asset analyses and market movers.
type MarketAnalyst struct {
	gen     service.StructuredGenerator
	movers  MoverSource
	timeout time.Duration
	log     *logger.Logger
}

func NewMarketAnalyst(gen service.StructuredGenerator, movers MoverSource, timeout time.Duration, log *logger.Logger) *MarketAnalyst {
	return &MarketAnalyst{gen: gen, movers: movers, timeout: timeout, log: log.With(logger.String("component", "market"))}
}

func (m *MarketAnalyst) generate(ctx context.Context, prompt string, schema *service.Schema, out any) error {
	if m.gen == nil {
		return ErrNoAnalysisBackend
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return m.gen.GenerateJSON(ctx, service.StructuredRequest{Prompt: prompt, Schema: schema}, out)
}

func (m *MarketAnalyst) AnalyzeSector(ctx context.Context, sector string) (models.SectorAnalysis, error) {
	sector = strings.TrimSpace(sector)
	var out models.SectorAnalysis
	if err := m.generate(ctx, fmt.Sprintf(sectorPrompt, sector), sectorSchema, &out); err != nil {
		m.log.Warn("sector analysis failed", logger.String("sector", sector), logger.Error(err))
		return models.SectorAnalysis{}, fmt.Errorf("analyze sector %q: %w", sector, err)
	}
	out.Sector = sector
	return out, nil
}

func (m *MarketAnalyst) DiscoverRelations(ctx context.Context, assets, analysisType string) (models.CrossAssetRelations, error) {
	var out models.CrossAssetRelations
	if err := m.generate(ctx, fmt.Sprintf(relationsPrompt, strings.TrimSpace(assets), strings.TrimSpace(analysisType)), relationsSchema, &out); err != nil {
		m.log.Warn("relations analysis failed", logger.String("assets", assets), logger.Error(err))
		return models.CrossAssetRelations{}, fmt.Errorf("discover relations: %w", err)
	}
	out.ConfidenceScore = clamp01(out.ConfidenceScore)
	return out, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

func (m *MarketAnalyst) Movers(count int, dir models.MoverDirection) []models.MarketMover {
	return m.movers.Movers(count, dir)
}
