// Package domain contains core domain types for the scamsafe honeypot.
package domain

// Category names an intelligence bucket.
type Category string

// Intelligence categories, in the order they are reported.
const (
	CategoryBankAccounts       Category = "bankAccounts"
	CategoryUPIIDs             Category = "upiIds"
	CategoryPhishingLinks      Category = "phishingLinks"
	CategoryPhoneNumbers       Category = "phoneNumbers"
	CategorySuspiciousKeywords Category = "suspiciousKeywords"
)

// Categories lists every intelligence category.
var Categories = []Category{
	CategoryBankAccounts,
	CategoryUPIIDs,
	CategoryPhishingLinks,
	CategoryPhoneNumbers,
	CategorySuspiciousKeywords,
}

// IntelligenceRecord accumulates the identifiers observed in a session.
// Each category holds distinct values in first-seen order.
type IntelligenceRecord struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// NewIntelligenceRecord returns a record with every category initialised,
// so it serialises as empty arrays rather than null.
func NewIntelligenceRecord() IntelligenceRecord {
	return IntelligenceRecord{
		BankAccounts:       []string{},
		UPIIDs:             []string{},
		PhishingLinks:      []string{},
		PhoneNumbers:       []string{},
		SuspiciousKeywords: []string{},
	}
}

func (r *IntelligenceRecord) bucket(c Category) *[]string {
	switch c {
	case CategoryBankAccounts:
		return &r.BankAccounts
	case CategoryUPIIDs:
		return &r.UPIIDs
	case CategoryPhishingLinks:
		return &r.PhishingLinks
	case CategoryPhoneNumbers:
		return &r.PhoneNumbers
	case CategorySuspiciousKeywords:
		return &r.SuspiciousKeywords
	default:
		return nil
	}
}

// Add appends value to the category if it is not already present.
// It reports whether the record changed.
func (r *IntelligenceRecord) Add(c Category, value string) bool {
	b := r.bucket(c)
	if b == nil || value == "" {
		return false
	}
	for _, v := range *b {
		if v == value {
			return false
		}
	}
	*b = append(*b, value)
	return true
}

// Values returns the values held for a category.
func (r *IntelligenceRecord) Values(c Category) []string {
	b := r.bucket(c)
	if b == nil {
		return nil
	}
	return *b
}

// Merge adds every value of other into r and returns how many were new.
func (r *IntelligenceRecord) Merge(other IntelligenceRecord) int {
	added := 0
	for _, c := range Categories {
		for _, v := range other.Values(c) {
			if r.Add(c, v) {
				added++
			}
		}
	}
	return added
}

// Len returns the total number of values across all categories.
func (r *IntelligenceRecord) Len() int {
	n := 0
	for _, c := range Categories {
		n += len(r.Values(c))
	}
	return n
}

// Clone returns a deep copy.
func (r IntelligenceRecord) Clone() IntelligenceRecord {
	out := NewIntelligenceRecord()
	out.Merge(r)
	return out
}
