package categorize

import (
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"
)

// Output columns added by ToTable.
const (
	ColumnCategory          = "category"
	ColumnVoucherType       = "voucher_type"
	ColumnVoucherTypeSource = "voucher_type_source"
	ColumnIntegrationType   = "integration_type"
)

const uncategorizedKey = "(uncategorized)"

// Summarize counts categorized entries. Amounts are summed exactly.
func Summarize(entries []domain.CategorizedEntry) domain.CategorizationSummary {
	s := domain.CategorizationSummary{
		TotalEntries:       len(entries),
		ByCategory:         make(map[string]int),
		AmountByCategory:   make(map[string]float64),
		ByIntegrationType:  make(map[string]int),
		ByVoucherType:      make(map[string]int),
		VoucherTypeSources: make(map[string]int),
		ByBridgeKey:        make(map[string]int),
	}
	amounts := make(map[string]*schema.Accumulator)
	for _, e := range entries {
		cat := e.Category
		if e.Categorized() {
			s.CategorizedEntries++
		} else {
			s.UncategorizedEntries++
			cat = uncategorizedKey
		}
		s.ByCategory[cat]++
		acc, ok := amounts[cat]
		if !ok {
			acc = &schema.Accumulator{}
			amounts[cat] = acc
		}
		acc.Add(e.Amount)

		s.ByIntegrationType[string(e.IntegrationType)]++
		vt := e.VoucherType
		if vt == "" {
			vt = "(unresolved)"
		}
		s.ByVoucherType[vt]++
		src := string(e.VoucherTypeSource)
		if src == "" {
			src = "unmatched"
		}
		s.VoucherTypeSources[src]++
	}
	for cat, acc := range amounts {
		s.AmountByCategory[cat] = acc.Float64()
	}
	return s
}

// ToTable renders categorized entries with canonical column names, ready for
// the generic classifier and the evidence workbook.
func ToTable(entries []domain.CategorizedEntry) *domain.Table {
	t := domain.NewTable(
		schema.FieldCompany,
		schema.FieldGLAccount,
		schema.FieldPostingDate,
		schema.FieldDocumentType,
		schema.FieldDocumentNo,
		schema.FieldVoucherNo,
		schema.FieldDescription,
		schema.FieldComment,
		schema.FieldUserID,
		schema.FieldBalAccountType,
		schema.FieldAmount,
		ColumnCategory,
		ColumnVoucherType,
		ColumnVoucherTypeSource,
		ColumnIntegrationType,
	)
	for _, e := range entries {
		var posting any
		if !e.PostingDate.IsZero() {
			posting = e.PostingDate.Format("2006-01-02")
		}
		t.Append(domain.Row{
			schema.FieldCompany:        e.CompanyCode,
			schema.FieldGLAccount:      e.GLAccount,
			schema.FieldPostingDate:    posting,
			schema.FieldDocumentType:   e.DocumentType,
			schema.FieldDocumentNo:     e.DocumentNo,
			schema.FieldVoucherNo:      e.VoucherNo,
			schema.FieldDescription:    e.Description,
			schema.FieldComment:        e.Comment,
			schema.FieldUserID:         e.UserID,
			schema.FieldBalAccountType: e.BalAccountType,
			schema.FieldAmount:         e.Amount,
			ColumnCategory:             nullable(e.Category),
			ColumnVoucherType:          nullable(e.VoucherType),
			ColumnVoucherTypeSource:    nullable(string(e.VoucherTypeSource)),
			ColumnIntegrationType:      string(e.IntegrationType),
		})
	}
	return t
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
