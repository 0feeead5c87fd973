// Package intel extracts scammer identifiers from message text.
package intel

import (
	"regexp"
	"strings"

	"github.com/ashureev/scamsafe/internal/domain"
)

var (
	upiPattern = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z]+`)

	// An "AC" style prefix glued to the digits still counts as a boundary.
	bankPattern = regexp.MustCompile(`(?:\b|(?i:a/?c|acct))(\d{10,18})\b`)

	linkPattern = regexp.MustCompile(`(?:https?://|www\.)\S+|\b(?:bit\.ly|tinyurl\.com|goo\.gl)/\S+`)

	phonePattern = regexp.MustCompile(`(?:\+?91[\-\s]?)?[6-9]\d{9}`)
)

const linkTrailing = `.,;:!?)]}'"`

// DefaultKeywords is the suspicious-keyword vocabulary.
var DefaultKeywords = []string{
	"refund", "verify", "KYC", "constable", "officer", "department",
	"urgent", "blocked", "PF", "EB", "bill", "payment",
}

// Extractor finds identifiers and appends them to an intelligence record.
type Extractor struct {
	keywords []string
}

// NewExtractor creates an extractor. A nil vocabulary selects DefaultKeywords.
func NewExtractor(keywords []string) *Extractor {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &Extractor{keywords: keywords}
}

// Scan returns the identifiers found in text as a fresh record.
func (e *Extractor) Scan(text string) domain.IntelligenceRecord {
	rec := domain.NewIntelligenceRecord()
	e.Extract(text, &rec)
	return rec
}

// Extract appends identifiers found in text to rec and returns how many
// values were new. Running it twice with the same text adds nothing the
// second time.
func (e *Extractor) Extract(text string, rec *domain.IntelligenceRecord) int {
	added := 0
	add := func(c domain.Category, v string) {
		if rec.Add(c, v) {
			added++
		}
	}

	for _, m := range upiPattern.FindAllString(text, -1) {
		add(domain.CategoryUPIIDs, m)
	}
	for _, m := range bankPattern.FindAllStringSubmatch(text, -1) {
		add(domain.CategoryBankAccounts, m[1])
	}
	for _, m := range linkPattern.FindAllString(text, -1) {
		add(domain.CategoryPhishingLinks, strings.TrimRight(m, linkTrailing))
	}
	for _, m := range findPhones(text) {
		add(domain.CategoryPhoneNumbers, m)
	}

	lower := strings.ToLower(text)
	for _, k := range e.keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			add(domain.CategorySuspiciousKeywords, k)
		}
	}
	return added
}

// findPhones returns phone-number matches that are not part of a longer
// digit run such as an account number.
func findPhones(text string) []string {
	var out []string
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isDigit(text[start-1]) {
			continue
		}
		if end < len(text) && isDigit(text[end]) {
			continue
		}
		out = append(out, text[start:end])
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
