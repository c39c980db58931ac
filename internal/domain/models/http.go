package models

import "strings"

// Request payloads bound by the HTTP layer.

type StockQuery struct {
	Ticker string `query:"ticker" validate:"required,max=12"`
}

type NewsQuery struct {
	Topic string `query:"topic" default:"markets" validate:"required,max=100"`
}

type AgentRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
}

type AgentResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversationId"`
}

type SectorRequest struct {
	Sector string `json:"sector" validate:"required,max=100"`
}

type RelationsRequest struct {
	AssetList    string `json:"assetList" validate:"required,max=500"`
	AnalysisType string `json:"analysisType" default:"correlation" validate:"required,max=50"`
}

type MLNotesRequest struct {
	ModelName          string `json:"modelName" validate:"required,max=100"`
	FeatureList        string `json:"featureList" validate:"required,max=1000"`
	PerformanceMetrics string `json:"performanceMetrics" validate:"required,max=500"`
}

// Features splits the comma-separated feature list, dropping blanks.
func (r MLNotesRequest) Features() []string {
	var out []string
	for _, f := range strings.Split(r.FeatureList, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

type MoversQuery struct {
	Type  string `query:"type" default:"gainers" validate:"oneof=gainers losers"`
	Count int    `query:"count" default:"5" validate:"min=1,max=20"`
}

type TransactionRequest struct {
	Ticker string  `json:"ticker" validate:"required,max=12"`
	Type   string  `json:"type" validate:"required,oneof=buy sell"`
	Shares float64 `json:"shares" validate:"gt=0"`
	Price  float64 `json:"price" validate:"gte=0"`
	Date   string  `json:"date" validate:"omitempty"`
}

type WatchlistRequest struct {
	Ticker string `json:"ticker" validate:"required,max=12"`
}

type ResolutionsQuery struct {
	Ticker string `query:"ticker" validate:"omitempty,max=12"`
	Limit  int    `query:"limit" default:"50" validate:"min=1,max=500"`
}
