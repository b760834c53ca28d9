// Package categorize assigns category, voucher type and integration type to
// voucher accrual GL entries.
//
// The cascade is a fixed list of pure per-row stages. A stage only touches rows
// that are still uncategorized, except integration typing and voucher type
// enrichment which see every row.
package categorize

import (
	"strings"

	"sox-reconciler/internal/domain"
)

// Stage is one step of the cascade.
type Stage struct {
	Name  string
	Apply func(domain.CategorizedEntry) domain.CategorizedEntry
}

// Input groups the extracts the cascade reads.
type Input struct {
	Entries  []domain.GLEntry
	Vouchers []domain.Voucher
	Usage    []domain.UsageRecord
}

var usagePhrases = []string{"item price credit", "item shipping fees", "voucher application"}

// Stages returns the cascade in execution order. The voucher type stage is
// bound to lookups built from vouchers and usage.
func Stages(vouchers []domain.Voucher, usage []domain.UsageRecord) []Stage {
	lookup := NewVoucherTypeLookup(vouchers, usage)
	return []Stage{
		{Name: "integration_type", Apply: integrationStage},
		{Name: "vtc", Apply: vtcStage},
		{Name: "issuance", Apply: issuanceStage},
		{Name: "usage_cancellation_expired", Apply: usageStage},
		{Name: "voucher_type", Apply: lookup.Apply},
	}
}

// Categorize runs the cascade over every entry. An entry that arrives with a
// source category keeps it. The result has one element per input entry, in
// input order; in.Entries is not modified.
func Categorize(in Input) []domain.CategorizedEntry {
	stages := Stages(in.Vouchers, in.Usage)
	out := make([]domain.CategorizedEntry, len(in.Entries))
	for i, e := range in.Entries {
		ce := domain.CategorizedEntry{GLEntry: e, Category: e.SourceCategory}
		for _, st := range stages {
			ce = st.Apply(ce)
		}
		out[i] = ce
	}
	return out
}

// IntegrationTypeOf classifies the posting user.
func IntegrationTypeOf(userID string) domain.IntegrationType {
	u := strings.ToUpper(userID)
	if strings.Contains(u, "NAV") && (strings.Contains(u, "BATCH") || strings.Contains(u, "SRVC")) {
		return domain.IntegrationTypeIntegration
	}
	return domain.IntegrationTypeManual
}

func integrationStage(e domain.CategorizedEntry) domain.CategorizedEntry {
	e.IntegrationType = IntegrationTypeOf(e.UserID)
	return e
}

// vtcStage: bank-balanced manual postings are refund payouts and take
// precedence over the description patterns.
func vtcStage(e domain.CategorizedEntry) domain.CategorizedEntry {
	if e.Categorized() || e.IntegrationType != domain.IntegrationTypeManual {
		return e
	}
	if e.Amount != 0 && strings.EqualFold(strings.TrimSpace(e.BalAccountType), "Bank Account") {
		e.Category = domain.CategoryVTC
		return e
	}
	if e.Amount > 0 {
		desc := strings.ToUpper(e.Description)
		comment := strings.ToUpper(e.Comment)
		if strings.Contains(desc, "MANUAL RND") || (strings.Contains(desc, "PYT_") && strings.Contains(comment, "GTB")) {
			e.Category = domain.CategoryVTC
		}
	}
	return e
}

func issuanceStage(e domain.CategorizedEntry) domain.CategorizedEntry {
	if e.Categorized() || e.Amount >= 0 {
		return e
	}
	desc := strings.ToLower(e.Description)
	switch {
	case strings.Contains(desc, "refund") || strings.Contains(desc, "rfn"):
		e.Category = domain.CategoryRefund
	case strings.Contains(desc, "commercial register") || strings.Contains(desc, "cxp"):
		e.Category = domain.CategoryApology
	case strings.Contains(desc, "pyt_pf"):
		e.Category = domain.CategoryJForce
	default:
		e.Category = domain.CategoryIssuance
	}
	return e
}

func usageStage(e domain.CategorizedEntry) domain.CategorizedEntry {
	if e.Categorized() || e.Amount <= 0 {
		return e
	}
	desc := strings.ToLower(strings.TrimSpace(e.Description))
	integration := e.IntegrationType == domain.IntegrationTypeIntegration
	manual := e.IntegrationType == domain.IntegrationTypeManual
	switch {
	case integration && isUsagePhrase(desc):
		e.Category = domain.CategoryUsage
	case manual && strings.EqualFold(strings.TrimSpace(e.DocumentType), "Credit Memo"):
		e.Category = domain.CategoryCancellationStoreCredit
	case integration && desc == "voucher occur":
		e.Category = domain.CategoryCancellationApology
	case manual && strings.HasPrefix(desc, "exp"):
		e.Category = domain.CategoryExpired
	}
	return e
}

func isUsagePhrase(desc string) bool {
	for _, p := range usagePhrases {
		if desc == p {
			return true
		}
	}
	return false
}
