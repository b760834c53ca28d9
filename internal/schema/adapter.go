// Package schema maps loosely-schemaed extracts onto one canonical schema.
//
// Alias resolution runs once, at ingestion. Everything downstream reads
// canonical field names only.
package schema

import (
	"fmt"
	"strings"

	"sox-reconciler/internal/domain"
)

// Canonical field names.
const (
	FieldCompany         = "company_code"
	FieldGLAccount       = "gl_account"
	FieldAmount          = "amount"
	FieldDocumentType    = "document_type"
	FieldDescription     = "description"
	FieldComment         = "comment"
	FieldUserID          = "user_id"
	FieldBalAccountType  = "bal_account_type"
	FieldPostingDate     = "posting_date"
	FieldVoucherNo       = "voucher_no"
	FieldDocumentNo      = "document_no"
	FieldSourceCategory  = "source_category"
	FieldBalance         = "balance"
	FieldID              = "id"
	FieldBusinessUse     = "business_use"
	FieldIsActive        = "is_active"
	FieldIsValid         = "is_valid"
	FieldInactiveAt      = "inactive_at"
	FieldRemainingAmount = "remaining_amount"
	FieldTotalAmountUsed = "total_amount_used"
	FieldCreatedAt       = "created_at"
	FieldVoucherCompany  = "company"
	FieldVoucherID       = "voucher_id"
	FieldTransactionNo   = "transaction_no"
	FieldAmountUsed      = "amount_used"
	FieldCustomerID      = "customer_id"
	FieldBusinessLine    = "business_line_code"
	FieldPostingGroup    = "customer_posting_group"
	FieldAmountLCY       = "amount_lcy"
)

// Field is a canonical column and the aliases it may appear under, in
// preference order. The canonical name itself is always tried first. A Silent
// field is absent from most extracts and its absence is not reported.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
	Silent   bool
}

// Schema is the canonical description of one dataset.
type Schema struct {
	Dataset string
	Fields  []Field
}

// Resolved is a table rewritten onto canonical names.
type Resolved struct {
	Table    *domain.Table
	Present  domain.ColumnSet
	Warnings []domain.Warning
}

var (
	GLEntrySchema = Schema{
		Dataset: "gl_entries",
		Fields: []Field{
			{Name: FieldCompany, Aliases: []string{"Company Code", "company", "Company", "country_code"}},
			{Name: FieldGLAccount, Aliases: []string{"G/L Account No_", "G/L Account No.", "GL Account No", "account_no", "gl_account_no"}},
			{Name: FieldAmount, Aliases: []string{"Amount", "amount_lcy", "Amount (LCY)", "Amount_LCY"}, Required: true},
			{Name: FieldDocumentType, Aliases: []string{"Document Type", "doc_type"}},
			{Name: FieldDescription, Aliases: []string{"Description", "desc"}},
			{Name: FieldComment, Aliases: []string{"Comment", "comments", "External Document No_"}},
			{Name: FieldUserID, Aliases: []string{"User ID", "User_ID", "created_by"}},
			{Name: FieldBalAccountType, Aliases: []string{"Bal_ Account Type", "Bal. Account Type", "balancing_account_type"}},
			{Name: FieldPostingDate, Aliases: []string{"Posting Date", "posting_dt", "date"}},
			{Name: FieldVoucherNo, Aliases: []string{"Voucher No_", "Voucher No.", "voucher_id", "voucher_number"}},
			{Name: FieldDocumentNo, Aliases: []string{"Document No_", "Document No.", "document_number", "transaction_no"}},
			{Name: FieldSourceCategory, Aliases: []string{"category", "Category", "voucher_category"}, Silent: true},
		},
	}

	GLBalanceSchema = Schema{
		Dataset: "gl_balances",
		Fields: []Field{
			{Name: FieldGLAccount, Aliases: []string{"G/L Account No_", "GL Account No", "account_no"}},
			{Name: FieldCompany, Aliases: []string{"Company Code", "company"}},
			{Name: FieldBalance, Aliases: []string{"Balance", "balance_lcy", "Balance at Date", "amount"}, Required: true},
		},
	}

	VoucherSchema = Schema{
		Dataset: "vouchers",
		Fields: []Field{
			{Name: FieldID, Aliases: []string{"voucher_id", "Voucher ID", "code"}, Required: true},
			{Name: FieldBusinessUse, Aliases: []string{"Business Use", "business_reason", "voucher_type"}},
			{Name: FieldIsActive, Aliases: []string{"Is Active", "active"}},
			{Name: FieldIsValid, Aliases: []string{"Is Valid", "valid"}},
			{Name: FieldInactiveAt, Aliases: []string{"Inactive At", "inactive_date", "canceled_at"}},
			{Name: FieldRemainingAmount, Aliases: []string{"Remaining Amount", "remaining_value", "amount"}},
			{Name: FieldTotalAmountUsed, Aliases: []string{"Total Amount Used", "amount_used_total"}},
			{Name: FieldCreatedAt, Aliases: []string{"Created At", "creation_date"}},
			{Name: FieldVoucherCompany, Aliases: []string{"company_code", "Company", "country_code"}},
		},
	}

	UsageSchema = Schema{
		Dataset: "voucher_usage",
		Fields: []Field{
			{Name: FieldVoucherID, Aliases: []string{"Voucher ID", "id", "voucher_no"}},
			{Name: FieldTransactionNo, Aliases: []string{"Transaction No", "Transaction No_", "transaction_id", "order_nr"}},
			{Name: FieldAmountUsed, Aliases: []string{"Amount Used", "usage_amount", "amount"}, Required: true},
			{Name: FieldBusinessUse, Aliases: []string{"Business Use", "business_reason"}},
		},
	}

	CustomerLedgerSchema = Schema{
		Dataset: "customer_ledger",
		Fields: []Field{
			{Name: FieldCustomerID, Aliases: []string{"Customer No_", "Customer No.", "customer_no"}, Required: true},
			{Name: FieldBusinessLine, Aliases: []string{"Business Line Code", "business_line", "bl_code"}},
			{Name: FieldPostingGroup, Aliases: []string{"Customer Posting Group", "posting_group"}},
			{Name: FieldAmountLCY, Aliases: []string{"Amount (LCY)", "Amount_LCY", "remaining_amount_lcy", "balance", "amount"}, Required: true},
		},
	}

	// ComponentSchema describes every target value component extract.
	ComponentSchema = Schema{
		Dataset: "component",
		Fields: []Field{
			{Name: FieldAmount, Aliases: []string{"Amount", "amount_lcy", "Amount (LCY)", "balance", "remaining_amount"}, Required: true},
		},
	}
)

// NormalizeName folds case and collapses whitespace.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ResolveColumn returns the first candidate, in candidate order, that names one
// of the columns. Matching ignores case and whitespace differences.
func ResolveColumn(columns []string, candidates []string) (string, bool) {
	for _, cand := range candidates {
		want := NormalizeName(cand)
		if want == "" {
			continue
		}
		for _, col := range columns {
			if NormalizeName(col) == want {
				return col, true
			}
		}
	}
	return "", false
}

// WithDataset returns a copy of s reporting errors under another dataset name.
func (s Schema) WithDataset(name string) Schema {
	s.Dataset = name
	return s
}

// Apply rewrites t onto canonical names. Columns outside the schema are kept
// under their original names. A missing required field is a SchemaError; a
// missing optional field is a warning. t itself is not modified.
func (s Schema) Apply(t *domain.Table) (Resolved, error) {
	var columns []string
	if t != nil {
		columns = t.Columns
	}

	rename := make(map[string]string, len(s.Fields))
	present := make(domain.ColumnSet, len(s.Fields))
	var warnings []domain.Warning
	for _, f := range s.Fields {
		candidates := append([]string{f.Name}, f.Aliases...)
		src, ok := ResolveColumn(columns, candidates)
		if ok {
			if _, taken := rename[src]; !taken {
				rename[src] = f.Name
				present[f.Name] = true
				continue
			}
		}
		if f.Required {
			return Resolved{}, &domain.SchemaError{Dataset: s.Dataset, Field: f.Name, Aliases: candidates}
		}
		if f.Silent {
			continue
		}
		warnings = append(warnings, domain.Warning{
			Source:  s.Dataset,
			Message: fmt.Sprintf("optional column %q not found", f.Name),
		})
	}

	out := domain.NewTable()
	for _, col := range columns {
		if canon, ok := rename[col]; ok {
			out.AddColumn(canon)
			continue
		}
		if present[col] {
			// an unrelated column shadowed by a canonical name is dropped
			continue
		}
		out.AddColumn(col)
	}

	if t != nil {
		out.Rows = make([]domain.Row, 0, len(t.Rows))
		for _, r := range t.Rows {
			nr := make(domain.Row, len(r))
			for k, v := range r {
				if canon, ok := rename[k]; ok {
					nr[canon] = v
				} else if !present[k] {
					nr[k] = v
				}
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	if out.Len() == 0 {
		warnings = append(warnings, domain.Warning{Source: s.Dataset, Message: "extract has no rows"})
	}
	return Resolved{Table: out, Present: present, Warnings: warnings}, nil
}
