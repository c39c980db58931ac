package models

// Sentiment is the classification label attached to an analyzed article.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// SentimentLabels lists the allowed labels, for prompt and schema construction.
func SentimentLabels() []string {
	return []string{string(SentimentPositive), string(SentimentNegative), string(SentimentNeutral)}
}

// RawArticle is an article before classification.
type RawArticle struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// AnalyzedArticle omits Content; callers only need the summary.
type AnalyzedArticle struct {
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`
}
