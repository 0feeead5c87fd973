package domain

// Classification labels produced by the scorer.
const (
	TypeFinancialScam = "financial_scam"
	TypeSafe          = "safe"
)

// DetectionResult is the scorer's verdict for a single message.
type DetectionResult struct {
	IsScam            bool     `json:"is_scam"`
	Confidence        float64  `json:"confidence"`
	Score             float64  `json:"score"`
	Type              string   `json:"type"`
	Reason            string   `json:"reason"`
	MatchedCategories []string `json:"matched_categories"`
	Engage            bool     `json:"trigger_engagement"`
}
