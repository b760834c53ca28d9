package domain

import "time"

// IntegrationType tells whether a GL posting came from an integration user or a person.
type IntegrationType string

const (
	IntegrationTypeIntegration IntegrationType = "Integration"
	IntegrationTypeManual      IntegrationType = "Manual"
)

// Voucher accrual categories assigned by the categorization cascade.
const (
	CategoryVTC                     = "VTC"
	// CategoryVTCManual is never assigned by the cascade. It arrives on GL
	// entries categorized upstream (source_category).
	CategoryVTCManual               = "VTC Manual"
	CategoryRefund                  = "Refund"
	CategoryApology                 = "Apology"
	CategoryJForce                  = "JForce"
	CategoryIssuance                = "Issuance"
	CategoryUsage                   = "Usage"
	CategoryCancellationStoreCredit = "Cancellation-StoreCredit"
	CategoryCancellationApology     = "Cancellation-Apology"
	CategoryExpired                 = "Expired"
)

// GLEntry is a General Ledger posting as extracted from NAV.
type GLEntry struct {
	CompanyCode    string    `json:"company_code"`
	GLAccount      string    `json:"gl_account"`
	Amount         float64   `json:"amount"`
	DocumentType   string    `json:"document_type"`
	Description    string    `json:"description"`
	Comment        string    `json:"comment"`
	UserID         string    `json:"user_id"`
	BalAccountType string    `json:"bal_account_type"`
	PostingDate    time.Time `json:"posting_date"`
	VoucherNo      string    `json:"voucher_no"`
	DocumentNo     string    `json:"document_no"`
	SourceCategory string    `json:"source_category,omitempty"`
}

// VoucherTypeSource records which lookup tier resolved an entry's voucher type.
type VoucherTypeSource string

const (
	VoucherTypeSourceNone          VoucherTypeSource = ""
	VoucherTypeSourceVoucherNo     VoucherTypeSource = "voucher_no"
	VoucherTypeSourceTransactionNo VoucherTypeSource = "transaction_no"
)

// CategorizedEntry is a GL entry plus the fields derived by categorization.
// The embedded entry is a copy; the source slice is never written to.
type CategorizedEntry struct {
	GLEntry
	Category          string            `json:"category"`
	VoucherType       string            `json:"voucher_type"`
	VoucherTypeSource VoucherTypeSource `json:"voucher_type_source"`
	IntegrationType   IntegrationType   `json:"integration_type"`
}

// Categorized reports whether a category was assigned.
func (e CategorizedEntry) Categorized() bool {
	return e.Category != ""
}

// Voucher is a row of the issuance baseline.
type Voucher struct {
	ID              string    `json:"id"`
	BusinessUse     string    `json:"business_use"`
	IsActive        bool      `json:"is_active"`
	IsValid         bool      `json:"is_valid"`
	InactiveAt      time.Time `json:"inactive_at"`
	RemainingAmount float64   `json:"remaining_amount"`
	TotalAmountUsed float64   `json:"total_amount_used"`
	CreatedAt       time.Time `json:"created_at"`
	Company         string    `json:"company"`
}

// UsageRecord is a voucher redemption from the usage extract.
type UsageRecord struct {
	VoucherID     string  `json:"voucher_id"`
	TransactionNo string  `json:"transaction_no"`
	AmountUsed    float64 `json:"amount_used"`
	BusinessUse   string  `json:"business_use"`
}

// CustomerLedgerEntry is a customer sub-ledger row.
type CustomerLedgerEntry struct {
	CustomerID       string  `json:"customer_id"`
	BusinessLineCode string  `json:"business_line_code"`
	PostingGroup     string  `json:"customer_posting_group"`
	AmountLCY        float64 `json:"amount_lcy"`
}

// ColumnSet records which canonical fields an extract actually carried.
type ColumnSet map[string]bool

// Has reports whether the canonical field was present.
func (c ColumnSet) Has(field string) bool {
	return c[field]
}
