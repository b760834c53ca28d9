package domain

// Bridge names used as keys of the report's bridges section.
const (
	BridgeVTCAdjustment        = "vtc_adjustment"
	BridgeTimingDifference     = "timing_difference"
	BridgeCustomerPostingGroup = "customer_posting_group"
	BridgeBusinessLineReclass  = "business_line_reclass"
)

// BridgeResult is the output of one bridge calculator.
type BridgeResult struct {
	Amount  float64        `json:"amount"`
	Proof   *Table         `json:"-"`
	Metrics map[string]any `json:"metrics"`
}

// ReconciliationStatus is the final verdict of a run.
type ReconciliationStatus string

const (
	StatusReconciled       ReconciliationStatus = "RECONCILED"
	StatusVarianceDetected ReconciliationStatus = "VARIANCE_DETECTED"
)

// Component is one of the source extracts whose amounts make up the target values.
type Component string

const (
	ComponentCustomerBalances     Component = "customer_balances"
	ComponentPrepayments          Component = "prepayments"
	ComponentVouchers             Component = "vouchers"
	ComponentCollections          Component = "collections"
	ComponentRefundLiability      Component = "refund_liability"
	ComponentUnreconciledPackages Component = "unreconciled_packages"
)

// TargetComponents is the fixed, ordered set of target value components.
var TargetComponents = []Component{
	ComponentCustomerBalances,
	ComponentPrepayments,
	ComponentVouchers,
	ComponentCollections,
	ComponentRefundLiability,
	ComponentUnreconciledPackages,
}

// ReconciliationResult holds Actuals vs Target Values vs Variance.
type ReconciliationResult struct {
	Actuals         float64                `json:"actuals"`
	TargetValues    float64                `json:"target_values"`
	Variance        float64                `json:"variance"`
	Status          ReconciliationStatus   `json:"status"`
	ComponentTotals map[Component]*float64 `json:"component_totals"`
}

// Extracts are the materialized source tables of one run.
type Extracts struct {
	GLEntries      *Table
	GLBalances     *Table
	Vouchers       *Table
	Usage          *Table
	CustomerLedger *Table
	Components     map[Component]*Table
}

// BridgeReport is the serialized view of one bridge in the final report.
type BridgeReport struct {
	Amount        *float64       `json:"amount"`
	ProofRowCount int            `json:"proof_row_count"`
	Metrics       map[string]any `json:"metrics"`
	Error         *BridgeFailure `json:"error,omitempty"`
}

// CategorizationSummary describes the output of the categorization cascade.
type CategorizationSummary struct {
	TotalEntries         int                `json:"total_entries"`
	CategorizedEntries   int                `json:"categorized_entries"`
	UncategorizedEntries int                `json:"uncategorized_entries"`
	ByCategory           map[string]int     `json:"by_category"`
	AmountByCategory     map[string]float64 `json:"amount_by_category"`
	ByIntegrationType    map[string]int     `json:"by_integration_type"`
	ByVoucherType        map[string]int     `json:"by_voucher_type"`
	VoucherTypeSources   map[string]int     `json:"voucher_type_sources"`
	ByBridgeKey          map[string]int     `json:"by_bridge_key"`
}

// Report is the auditable, JSON-serializable outcome of a reconciliation run.
type Report struct {
	RunID                 string                  `json:"run_id"`
	Status                ReconciliationStatus    `json:"status"`
	Timestamp             string                  `json:"timestamp"`
	CutoffDate            string                  `json:"cutoff_date"`
	Actuals               *float64                `json:"actuals"`
	TargetValues          *float64                `json:"target_values"`
	Variance              *float64                `json:"variance"`
	ComponentTotals       map[Component]*float64  `json:"component_totals"`
	Bridges               map[string]BridgeReport `json:"bridges"`
	CategorizationSummary CategorizationSummary   `json:"categorization_summary"`
	Errors                []string                `json:"errors"`
	Warnings              []string                `json:"warnings"`

	// Classified and Proofs are evidence tables; they travel with the report
	// to the evidence writer but are not part of the JSON body.
	Classified *Table            `json:"-"`
	Proofs     map[string]*Table `json:"-"`
}
