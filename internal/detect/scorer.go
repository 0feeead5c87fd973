// Package detect scores inbound messages for scam likelihood.
package detect

import (
	"math"
	"regexp"
	"strings"

	"github.com/ashureev/scamsafe/internal/domain"
)

// Fixed scoring constants.
const (
	scamThreshold      = 0.3
	maxConfidence      = 0.99
	negativeConfidence = 0.1
	urlBonus           = 0.2
	upiBonus           = 0.2

	// DefaultEngageThreshold is the confidence at which persona engagement starts.
	DefaultEngageThreshold = 0.85
)

// keyword is a single weighted pattern and the label it reports.
type keyword struct {
	re    *regexp.Regexp
	label string
}

type tier struct {
	name     string
	weight   float64
	keywords []keyword
}

func kw(expr, label string) keyword {
	return keyword{re: regexp.MustCompile(expr), label: label}
}

// Patterns run against the lowercased message.
var tiers = []tier{
	{"critical", 0.3, []keyword{
		kw(`urgent`, "urgent"), kw(`immediately`, "immediately"), kw(`blocked`, "blocked"),
		kw(`suspended`, "suspended"), kw(`kyc`, "kyc"), kw(`sbi`, "sbi"),
		kw(`hdfc`, "hdfc"), kw(`otp`, "otp"),
	}},
	{"emergency", 0.3, []keyword{
		kw(`wedding`, "wedding"), kw(`hospital`, "hospital"), kw(`bounced`, "bounced"),
		kw(`sister`, "sister"), kw(`emergency`, "emergency"), kw(`help needed`, "help needed"),
		kw(`stuck`, "stuck"), kw(`god bless`, "god bless"),
	}},
	{"payment", 0.2, []keyword{
		kw(`gpay`, "gpay"), kw(`paytm`, "paytm"), kw(`phonepe`, "phonepe"),
		kw(`transfer`, "transfer"), kw(`rupees`, "rupees"),
		kw(`account details`, "account details"), kw(`send money`, "send money"),
	}},
	{"suspicious", 0.15, []keyword{
		kw(`click here`, "click here"), kw(`bit\.ly`, "bit.ly"), kw(`verify`, "verify"),
		kw(`lottery`, "lottery"), kw(`won`, "won"), kw(`prize`, "prize"), kw(`refund`, "refund"),
	}},
}

var (
	urlPattern = regexp.MustCompile(`http|www\.|bit\.ly`)
	upiPattern = regexp.MustCompile(`[a-zA-Z0-9.\-_]+@[a-zA-Z]+`)
)

// Scorer applies the weighted keyword tiers to a message.
type Scorer struct {
	engageThreshold float64
}

// NewScorer creates a scorer. A non-positive threshold selects DefaultEngageThreshold.
func NewScorer(engageThreshold float64) *Scorer {
	if engageThreshold <= 0 {
		engageThreshold = DefaultEngageThreshold
	}
	return &Scorer{engageThreshold: engageThreshold}
}

// Score classifies text. It never fails; an empty message scores as safe.
func (s *Scorer) Score(text string) domain.DetectionResult {
	lower := strings.ToLower(text)

	var score float64
	matched := []string{}
	for _, t := range tiers {
		for _, k := range t.keywords {
			if k.re.MatchString(lower) {
				score += t.weight
				matched = append(matched, k.label)
			}
		}
	}

	if urlPattern.MatchString(lower) {
		score += urlBonus
		matched = append(matched, "contains_url")
	}
	// UPI handles are matched on the original text.
	if upiPattern.MatchString(text) {
		score += upiBonus
		matched = append(matched, "contains_upi")
	}

	res := domain.DetectionResult{
		Score:             round2(score),
		MatchedCategories: matched,
	}
	if score > scamThreshold {
		res.IsScam = true
		res.Confidence = round2(math.Min(score, maxConfidence))
		res.Type = domain.TypeFinancialScam
	} else {
		res.Confidence = negativeConfidence
		res.Type = domain.TypeSafe
	}
	if len(matched) > 0 {
		res.Reason = "Detected indicators: " + strings.Join(matched, ", ")
	} else {
		res.Reason = "No suspicious patterns found."
	}
	res.Engage = res.IsScam && res.Confidence >= s.engageThreshold
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
