package schema

import (
	"fmt"
	"time"

	"sox-reconciler/internal/domain"
)

// Decoded is a typed extract together with the fields it carried and the data
// quality warnings raised while decoding it.
type Decoded[T any] struct {
	Rows     []T
	Present  domain.ColumnSet
	Warnings []domain.Warning
}

// coercer counts values that had to be replaced by the fill default.
type coercer struct {
	dataset string
	missing map[string]int
	order   []string
}

func newCoercer(dataset string) *coercer {
	return &coercer{dataset: dataset, missing: make(map[string]int)}
}

func (c *coercer) float(r domain.Row, field string, present domain.ColumnSet) float64 {
	f, ok := CoerceFloat(r[field], 0)
	if !ok && present.Has(field) {
		c.note(field)
	}
	return f
}

func (c *coercer) flag(r domain.Row, field string, present domain.ColumnSet, def bool) bool {
	if !present.Has(field) {
		return def
	}
	b, ok := CoerceBool(r[field])
	if !ok {
		c.note(field)
		return def
	}
	return b
}

func (c *coercer) date(r domain.Row, field string, present domain.ColumnSet) time.Time {
	t, ok := CoerceTime(r[field])
	if !ok && present.Has(field) && CoerceString(r[field]) != "" {
		c.note(field)
	}
	return t
}

func (c *coercer) note(field string) {
	c.noteN(field, 1)
}

func (c *coercer) noteN(field string, n int) {
	if n <= 0 {
		return
	}
	if _, seen := c.missing[field]; !seen {
		c.order = append(c.order, field)
	}
	c.missing[field] += n
}

func (c *coercer) warnings() []domain.Warning {
	out := make([]domain.Warning, 0, len(c.order))
	for _, field := range c.order {
		out = append(out, domain.Warning{
			Source:  c.dataset,
			Message: fmt.Sprintf("%d value(s) in %q could not be parsed and were replaced by the default", c.missing[field], field),
		})
	}
	return out
}

// DecodeGLEntries reads GL entries. amount is required.
func DecodeGLEntries(t *domain.Table) (Decoded[domain.GLEntry], error) {
	res, err := GLEntrySchema.Apply(t)
	if err != nil {
		return Decoded[domain.GLEntry]{}, err
	}
	c := newCoercer(GLEntrySchema.Dataset)
	p := res.Present
	rows := make([]domain.GLEntry, 0, res.Table.Len())
	for _, r := range res.Table.Rows {
		rows = append(rows, domain.GLEntry{
			CompanyCode:    CoerceString(r[FieldCompany]),
			GLAccount:      CoerceString(r[FieldGLAccount]),
			Amount:         c.float(r, FieldAmount, p),
			DocumentType:   CoerceString(r[FieldDocumentType]),
			Description:    CoerceString(r[FieldDescription]),
			Comment:        CoerceString(r[FieldComment]),
			UserID:         CoerceString(r[FieldUserID]),
			BalAccountType: CoerceString(r[FieldBalAccountType]),
			PostingDate:    c.date(r, FieldPostingDate, p),
			VoucherNo:      CoerceString(r[FieldVoucherNo]),
			DocumentNo:     CoerceString(r[FieldDocumentNo]),
			SourceCategory: CoerceString(r[FieldSourceCategory]),
		})
	}
	return Decoded[domain.GLEntry]{Rows: rows, Present: p, Warnings: append(res.Warnings, c.warnings()...)}, nil
}

// DecodeVouchers reads the issuance baseline. A missing is_active column means
// every voucher is treated as active; a missing is_valid column means valid.
func DecodeVouchers(t *domain.Table) (Decoded[domain.Voucher], error) {
	res, err := VoucherSchema.Apply(t)
	if err != nil {
		return Decoded[domain.Voucher]{}, err
	}
	c := newCoercer(VoucherSchema.Dataset)
	p := res.Present
	rows := make([]domain.Voucher, 0, res.Table.Len())
	for _, r := range res.Table.Rows {
		rows = append(rows, domain.Voucher{
			ID:              CoerceString(r[FieldID]),
			BusinessUse:     CoerceString(r[FieldBusinessUse]),
			IsActive:        c.flag(r, FieldIsActive, p, true),
			IsValid:         c.flag(r, FieldIsValid, p, true),
			InactiveAt:      c.date(r, FieldInactiveAt, p),
			RemainingAmount: c.float(r, FieldRemainingAmount, p),
			TotalAmountUsed: c.float(r, FieldTotalAmountUsed, p),
			CreatedAt:       c.date(r, FieldCreatedAt, p),
			Company:         CoerceString(r[FieldVoucherCompany]),
		})
	}
	return Decoded[domain.Voucher]{Rows: rows, Present: p, Warnings: append(res.Warnings, c.warnings()...)}, nil
}

// DecodeUsage reads voucher usage records. amount_used is required.
func DecodeUsage(t *domain.Table) (Decoded[domain.UsageRecord], error) {
	res, err := UsageSchema.Apply(t)
	if err != nil {
		return Decoded[domain.UsageRecord]{}, err
	}
	c := newCoercer(UsageSchema.Dataset)
	p := res.Present
	rows := make([]domain.UsageRecord, 0, res.Table.Len())
	for _, r := range res.Table.Rows {
		rows = append(rows, domain.UsageRecord{
			VoucherID:     CoerceString(r[FieldVoucherID]),
			TransactionNo: CoerceString(r[FieldTransactionNo]),
			AmountUsed:    c.float(r, FieldAmountUsed, p),
			BusinessUse:   CoerceString(r[FieldBusinessUse]),
		})
	}
	return Decoded[domain.UsageRecord]{Rows: rows, Present: p, Warnings: append(res.Warnings, c.warnings()...)}, nil
}

// DecodeCustomerLedger reads customer ledger entries.
func DecodeCustomerLedger(t *domain.Table) (Decoded[domain.CustomerLedgerEntry], error) {
	res, err := CustomerLedgerSchema.Apply(t)
	if err != nil {
		return Decoded[domain.CustomerLedgerEntry]{}, err
	}
	c := newCoercer(CustomerLedgerSchema.Dataset)
	p := res.Present
	rows := make([]domain.CustomerLedgerEntry, 0, res.Table.Len())
	for _, r := range res.Table.Rows {
		rows = append(rows, domain.CustomerLedgerEntry{
			CustomerID:       CoerceString(r[FieldCustomerID]),
			BusinessLineCode: CoerceString(r[FieldBusinessLine]),
			PostingGroup:     CoerceString(r[FieldPostingGroup]),
			AmountLCY:        c.float(r, FieldAmountLCY, p),
		})
	}
	return Decoded[domain.CustomerLedgerEntry]{Rows: rows, Present: p, Warnings: append(res.Warnings, c.warnings()...)}, nil
}

// SumField resolves field through s and sums it over t. The field must be
// required by s; a missing column is a SchemaError.
func SumField(t *domain.Table, s Schema, field string) (float64, []domain.Warning, error) {
	res, err := s.Apply(t)
	if err != nil {
		return 0, nil, err
	}
	if !res.Present.Has(field) {
		return 0, nil, &domain.SchemaError{Dataset: s.Dataset, Field: field}
	}
	values := make([]any, len(res.Table.Rows))
	for i, r := range res.Table.Rows {
		values[i] = r[field]
	}
	floats, missing := CoerceColumn(values, 0)
	c := newCoercer(s.Dataset)
	c.noteN(field, missing)
	return Sum(floats...), append(res.Warnings, c.warnings()...), nil
}
