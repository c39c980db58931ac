package models

// MoverDirection selects gainers or losers.
type MoverDirection string

const (
	Gainers MoverDirection = "gainers"
	Losers  MoverDirection = "losers"
)

type MarketMover struct {
	Ticker        string `json:"ticker"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
	IsUp          bool   `json:"isUp"`
}

// StockInfo is an entry of the static reference list.
type StockInfo struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

type SectorAnalysis struct {
	Sector            string `json:"sector"`
	KeyPlayers        string `json:"keyPlayers"`
	RecentTrends      string `json:"recentTrends"`
	FutureOutlook     string `json:"futureOutlook"`
	InvestmentSummary string `json:"investmentSummary"`
}

type CrossAssetRelations struct {
	Relations       string  `json:"relations"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Explanation     string  `json:"explanation"`
}

// FeatureImportance is the share of a model's predictive weight carried by
// one feature. Scores of one model sum to 1.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

type MLNotes struct {
	ModelName            string              `json:"modelName"`
	FeatureHandlingNotes string              `json:"featureHandlingNotes"`
	ExplainabilityNotes  string              `json:"explainabilityNotes"`
	ConfidenceNotes      string              `json:"confidenceNotes"`
	FeatureImportance    []FeatureImportance `json:"featureImportance"`
}
