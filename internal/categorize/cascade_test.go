package categorize

import (
	"testing"

	"sox-reconciler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	navBatch = "NAV-BATCH-01"
	person   = "JDOE"
)

func TestIntegrationTypeOf(t *testing.T) {
	tests := []struct {
		user string
		want domain.IntegrationType
	}{
		{user: "NAV-BATCH", want: domain.IntegrationTypeIntegration},
		{user: "nav_srvc_user", want: domain.IntegrationTypeIntegration},
		{user: "NAV", want: domain.IntegrationTypeManual},
		{user: "BATCH-RUNNER", want: domain.IntegrationTypeManual},
		{user: "jdoe", want: domain.IntegrationTypeManual},
		{user: "", want: domain.IntegrationTypeManual},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			assert.Equal(t, tt.want, IntegrationTypeOf(tt.user))
		})
	}
}

func TestCategorize_Categories(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.GLEntry
		want  string
	}{
		// VTC
		{name: "bank balanced manual refund", entry: domain.GLEntry{UserID: person, Amount: -50, BalAccountType: "Bank Account", Description: "refund"}, want: domain.CategoryVTC},
		{name: "bank balanced positive", entry: domain.GLEntry{UserID: person, Amount: 50, BalAccountType: "bank account"}, want: domain.CategoryVTC},
		{name: "bank balanced zero amount is not VTC", entry: domain.GLEntry{UserID: person, Amount: 0, BalAccountType: "Bank Account"}, want: ""},
		{name: "manual rnd", entry: domain.GLEntry{UserID: person, Amount: 20, Description: "Manual RND adj"}, want: domain.CategoryVTC},
		{name: "pyt with gtb comment", entry: domain.GLEntry{UserID: person, Amount: 20, Description: "PYT_123", Comment: "gtb transfer"}, want: domain.CategoryVTC},
		{name: "pyt without gtb comment", entry: domain.GLEntry{UserID: person, Amount: 20, Description: "PYT_123", Comment: "other"}, want: ""},
		{name: "integration user bank balanced is not VTC", entry: domain.GLEntry{UserID: navBatch, Amount: -20, BalAccountType: "Bank Account"}, want: domain.CategoryIssuance},

		// Issuance
		{name: "refund issuance", entry: domain.GLEntry{UserID: navBatch, Amount: -10, Description: "Customer REFUND voucher"}, want: domain.CategoryRefund},
		{name: "rfn issuance", entry: domain.GLEntry{UserID: person, Amount: -10, Description: "RFN-991"}, want: domain.CategoryRefund},
		{name: "apology via commercial register", entry: domain.GLEntry{UserID: person, Amount: -10, Description: "Commercial Register case"}, want: domain.CategoryApology},
		{name: "apology via cxp", entry: domain.GLEntry{UserID: person, Amount: -10, Description: "CXP goodwill"}, want: domain.CategoryApology},
		{name: "jforce", entry: domain.GLEntry{UserID: person, Amount: -10, Description: "PYT_PF bonus"}, want: domain.CategoryJForce},
		{name: "generic issuance", entry: domain.GLEntry{UserID: person, Amount: -10, Description: "campaign"}, want: domain.CategoryIssuance},

		// Usage / cancellation / expiry
		{name: "usage phrase", entry: domain.GLEntry{UserID: navBatch, Amount: 10, Description: " Item Price Credit "}, want: domain.CategoryUsage},
		{name: "usage phrase shipping", entry: domain.GLEntry{UserID: navBatch, Amount: 10, Description: "item shipping fees"}, want: domain.CategoryUsage},
		{name: "usage phrase must be exact", entry: domain.GLEntry{UserID: navBatch, Amount: 10, Description: "item price credit extra"}, want: ""},
		{name: "usage phrase by manual user", entry: domain.GLEntry{UserID: person, Amount: 10, Description: "voucher application"}, want: ""},
		{name: "store credit cancellation", entry: domain.GLEntry{UserID: person, Amount: 10, DocumentType: "Credit Memo"}, want: domain.CategoryCancellationStoreCredit},
		{name: "credit memo by integration user", entry: domain.GLEntry{UserID: navBatch, Amount: 10, DocumentType: "Credit Memo"}, want: ""},
		{name: "apology cancellation", entry: domain.GLEntry{UserID: navBatch, Amount: 10, Description: "Voucher Occur"}, want: domain.CategoryCancellationApology},
		{name: "expired", entry: domain.GLEntry{UserID: person, Amount: 10, Description: "EXP vouchers sept"}, want: domain.CategoryExpired},
		{name: "expired by integration user", entry: domain.GLEntry{UserID: navBatch, Amount: 10, Description: "exp vouchers"}, want: ""},
		{name: "unmatched positive stays uncategorized", entry: domain.GLEntry{UserID: person, Amount: 10, Description: "misc"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(Input{Entries: []domain.GLEntry{tt.entry}})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Category)
		})
	}
}

func TestCategorize_IntegrationTypeOnEveryRow(t *testing.T) {
	got := Categorize(Input{Entries: []domain.GLEntry{
		{UserID: navBatch, Amount: -1},
		{UserID: person, Amount: 0},
		{UserID: person, Amount: 5, BalAccountType: "Bank Account"},
	}})
	assert.Equal(t, domain.IntegrationTypeIntegration, got[0].IntegrationType)
	assert.Equal(t, domain.IntegrationTypeManual, got[1].IntegrationType)
	assert.Equal(t, domain.IntegrationTypeManual, got[2].IntegrationType)
}

func TestCategorize_KeepsSourceCategory(t *testing.T) {
	vouchers := []domain.Voucher{{ID: "V7", BusinessUse: "refund"}}
	got := Categorize(Input{
		Entries: []domain.GLEntry{
			{UserID: person, Amount: 40, Description: "voucher application", VoucherNo: "V7", SourceCategory: domain.CategoryVTCManual},
			{UserID: navBatch, Amount: 40, Description: "voucher application", VoucherNo: "V7"},
		},
		Vouchers: vouchers,
	})
	require.Len(t, got, 2)
	assert.Equal(t, domain.CategoryVTCManual, got[0].Category)
	assert.Equal(t, domain.IntegrationTypeManual, got[0].IntegrationType)
	assert.Equal(t, "refund", got[0].VoucherType)
	assert.Equal(t, domain.CategoryUsage, got[1].Category)
}

func TestCategorize_DoesNotMutateInput(t *testing.T) {
	entries := []domain.GLEntry{{UserID: person, Amount: -10, Description: "refund"}}
	before := entries[0]
	got := Categorize(Input{Entries: entries})
	assert.Equal(t, before, entries[0])
	assert.Equal(t, before, got[0].GLEntry)
}

func TestCategorize_VoucherTypeTwoTierLookup(t *testing.T) {
	vouchers := []domain.Voucher{
		{ID: "V1", BusinessUse: "refund"},
		{ID: "V2", BusinessUse: "store_credit"},
		{ID: "V1", BusinessUse: "duplicate-ignored"},
	}
	usage := []domain.UsageRecord{
		{VoucherID: "V2", TransactionNo: "TX-2", AmountUsed: 5},
		{VoucherID: "", TransactionNo: "TX-3", AmountUsed: 5, BusinessUse: "apology_v2"},
		{VoucherID: "V-UNKNOWN", TransactionNo: "TX-4", AmountUsed: 5},
	}
	entries := []domain.GLEntry{
		{VoucherNo: "V1", DocumentNo: "TX-2"},  // primary wins
		{VoucherNo: "", DocumentNo: "TX-2"},    // fallback, blank voucher number
		{VoucherNo: "V404", DocumentNo: "TX-2"}, // fallback, unmatched voucher number
		{VoucherNo: "", DocumentNo: "TX-3"},    // fallback to usage business use
		{VoucherNo: "", DocumentNo: "TX-4"},    // usage row without known voucher or business use
		{VoucherNo: "", DocumentNo: ""},
	}
	got := Categorize(Input{Entries: entries, Vouchers: vouchers, Usage: usage})

	want := []struct {
		vt  string
		src domain.VoucherTypeSource
	}{
		{"refund", domain.VoucherTypeSourceVoucherNo},
		{"store_credit", domain.VoucherTypeSourceTransactionNo},
		{"store_credit", domain.VoucherTypeSourceTransactionNo},
		{"apology_v2", domain.VoucherTypeSourceTransactionNo},
		{"", domain.VoucherTypeSourceNone},
		{"", domain.VoucherTypeSourceNone},
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.vt, got[i].VoucherType, "row %d", i)
		assert.Equal(t, w.src, got[i].VoucherTypeSource, "row %d", i)
	}
}

func TestCategorize_Deterministic(t *testing.T) {
	in := Input{
		Entries: []domain.GLEntry{
			{UserID: navBatch, Amount: 10, Description: "voucher application", VoucherNo: "V1"},
			{UserID: person, Amount: -5, Description: "refund", DocumentNo: "TX-1"},
			{UserID: person, Amount: 7, Description: "exp"},
		},
		Vouchers: []domain.Voucher{{ID: "V1", BusinessUse: "refund"}},
		Usage:    []domain.UsageRecord{{VoucherID: "V1", TransactionNo: "TX-1"}},
	}
	first := Categorize(in)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Categorize(in))
	}
	assert.Equal(t, Summarize(first), Summarize(Categorize(in)))
}

func TestSummarize(t *testing.T) {
	entries := []domain.CategorizedEntry{
		{GLEntry: domain.GLEntry{Amount: -10.1}, Category: domain.CategoryRefund, IntegrationType: domain.IntegrationTypeManual, VoucherType: "refund", VoucherTypeSource: domain.VoucherTypeSourceVoucherNo},
		{GLEntry: domain.GLEntry{Amount: -0.2}, Category: domain.CategoryRefund, IntegrationType: domain.IntegrationTypeManual},
		{GLEntry: domain.GLEntry{Amount: 3}, IntegrationType: domain.IntegrationTypeIntegration},
	}
	s := Summarize(entries)
	assert.Equal(t, 3, s.TotalEntries)
	assert.Equal(t, 2, s.CategorizedEntries)
	assert.Equal(t, 1, s.UncategorizedEntries)
	assert.Equal(t, map[string]int{domain.CategoryRefund: 2, "(uncategorized)": 1}, s.ByCategory)
	assert.Equal(t, -10.3, s.AmountByCategory[domain.CategoryRefund])
	assert.Equal(t, map[string]int{"Manual": 2, "Integration": 1}, s.ByIntegrationType)
	assert.Equal(t, map[string]int{"voucher_no": 1, "unmatched": 2}, s.VoucherTypeSources)
	assert.Equal(t, map[string]int{"refund": 1, "(unresolved)": 2}, s.ByVoucherType)
}

func TestToTable(t *testing.T) {
	tbl := ToTable([]domain.CategorizedEntry{
		{GLEntry: domain.GLEntry{GLAccount: "18412", Amount: -5}, Category: domain.CategoryRefund, IntegrationType: domain.IntegrationTypeManual},
		{GLEntry: domain.GLEntry{GLAccount: "18412", Amount: 5}, IntegrationType: domain.IntegrationTypeManual},
	})
	require.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.HasColumn(ColumnCategory))
	assert.Equal(t, domain.CategoryRefund, tbl.Rows[0][ColumnCategory])
	assert.Nil(t, tbl.Rows[1][ColumnCategory])
	assert.Nil(t, tbl.Rows[0]["posting_date"])
	assert.Equal(t, -5.0, tbl.Rows[0]["amount"])
}
