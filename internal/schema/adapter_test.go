package schema

import (
	"errors"
	"testing"

	"sox-reconciler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumn(t *testing.T) {
	columns := []string{"Posting Date", "  AMOUNT ", "G/L  Account No_"}
	tests := []struct {
		name       string
		candidates []string
		want       string
		wantOK     bool
	}{
		{name: "case and whitespace tolerant", candidates: []string{"amount"}, want: "  AMOUNT ", wantOK: true},
		{name: "collapsed inner whitespace", candidates: []string{"g/l account no_"}, want: "G/L  Account No_", wantOK: true},
		{name: "first alias wins", candidates: []string{"posting date", "amount"}, want: "Posting Date", wantOK: true},
		{name: "later alias used when earlier missing", candidates: []string{"posting_dt", "Posting Date"}, want: "Posting Date", wantOK: true},
		{name: "no match", candidates: []string{"balance"}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveColumn(columns, tt.candidates)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemaApply_RenamesToCanonical(t *testing.T) {
	in := &domain.Table{
		Columns: []string{"G/L Account No_", "Amount", "Voucher No_", "extra"},
		Rows: []domain.Row{
			{"G/L Account No_": "18412", "Amount": "1,000.00", "Voucher No_": "V1", "extra": "x"},
		},
	}
	res, err := GLEntrySchema.Apply(in)
	require.NoError(t, err)

	assert.Equal(t, []string{FieldGLAccount, FieldAmount, FieldVoucherNo, "extra"}, res.Table.Columns)
	assert.Equal(t, domain.Row{FieldGLAccount: "18412", FieldAmount: "1,000.00", FieldVoucherNo: "V1", "extra": "x"}, res.Table.Rows[0])
	assert.True(t, res.Present.Has(FieldAmount))
	assert.False(t, res.Present.Has(FieldDescription))
	assert.NotEmpty(t, res.Warnings, "missing optional columns are reported")

	// input untouched
	assert.Equal(t, "G/L Account No_", in.Columns[0])
	assert.Contains(t, in.Rows[0], "Amount")
}

func TestSchemaApply_MissingRequiredIsSchemaError(t *testing.T) {
	in := &domain.Table{Columns: []string{"description"}, Rows: []domain.Row{{"description": "x"}}}
	_, err := GLEntrySchema.Apply(in)
	var serr *domain.SchemaError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "gl_entries", serr.Dataset)
	assert.Equal(t, FieldAmount, serr.Field)
}

func TestSchemaApply_NilAndEmptyTables(t *testing.T) {
	_, err := GLEntrySchema.Apply(nil)
	assert.Error(t, err)

	res, err := GLEntrySchema.Apply(domain.NewTable("amount"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Table.Len())
	assert.Contains(t, res.Warnings, domain.Warning{Source: "gl_entries", Message: "extract has no rows"})
}

func TestDecodeGLEntries(t *testing.T) {
	in := &domain.Table{
		Columns: []string{"Amount", "User ID", "Posting Date", "Description"},
		Rows: []domain.Row{
			{"Amount": "-1,250.50", "User ID": "NAV-BATCH", "Posting Date": "2025-09-01", "Description": " Refund "},
			{"Amount": "oops", "User ID": "jdoe", "Posting Date": "", "Description": "x"},
		},
	}
	got, err := DecodeGLEntries(in)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, -1250.50, got.Rows[0].Amount)
	assert.Equal(t, "NAV-BATCH", got.Rows[0].UserID)
	assert.Equal(t, "Refund", got.Rows[0].Description)
	assert.Equal(t, 2025, got.Rows[0].PostingDate.Year())
	assert.Equal(t, 0.0, got.Rows[1].Amount)
	assert.True(t, got.Rows[1].PostingDate.IsZero())

	var coerced bool
	for _, w := range got.Warnings {
		if w.Message == `1 value(s) in "amount" could not be parsed and were replaced by the default` {
			coerced = true
		}
	}
	assert.True(t, coerced)
}

func TestDecodeGLEntries_SourceCategory(t *testing.T) {
	withCategory := &domain.Table{
		Columns: []string{"Amount", "Category"},
		Rows:    []domain.Row{{"Amount": "10", "Category": " VTC Manual "}},
	}
	got, err := DecodeGLEntries(withCategory)
	require.NoError(t, err)
	assert.True(t, got.Present.Has(FieldSourceCategory))
	assert.Equal(t, domain.CategoryVTCManual, got.Rows[0].SourceCategory)

	without, err := DecodeGLEntries(&domain.Table{Columns: []string{"Amount"}, Rows: []domain.Row{{"Amount": "10"}}})
	require.NoError(t, err)
	assert.Empty(t, without.Rows[0].SourceCategory)
	for _, w := range without.Warnings {
		assert.NotContains(t, w.Message, FieldSourceCategory)
	}
}

func TestDecodeVouchers_Defaults(t *testing.T) {
	in := &domain.Table{
		Columns: []string{"voucher_id", "business_use", "remaining_amount"},
		Rows:    []domain.Row{{"voucher_id": "V1", "business_use": "refund", "remaining_amount": "10"}},
	}
	got, err := DecodeVouchers(in)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	v := got.Rows[0]
	assert.Equal(t, "V1", v.ID)
	assert.True(t, v.IsActive, "missing is_active means active")
	assert.True(t, v.IsValid, "missing is_valid means valid")
	assert.Equal(t, 10.0, v.RemainingAmount)
	assert.False(t, got.Present.Has(FieldTotalAmountUsed))
}

func TestDecodeUsage_RequiresAmount(t *testing.T) {
	in := &domain.Table{Columns: []string{"voucher_id"}, Rows: []domain.Row{{"voucher_id": "V1"}}}
	_, err := DecodeUsage(in)
	var serr *domain.SchemaError
	assert.True(t, errors.As(err, &serr))
}

func TestDecodeCustomerLedger(t *testing.T) {
	in := &domain.Table{
		Columns: []string{"Customer No_", "Business Line Code", "Customer Posting Group", "Amount (LCY)"},
		Rows: []domain.Row{
			{"Customer No_": "C1", "Business Line Code": "BL01", "Customer Posting Group": "RETAIL", "Amount (LCY)": "1,000"},
		},
	}
	got, err := DecodeCustomerLedger(in)
	require.NoError(t, err)
	assert.Equal(t, []domain.CustomerLedgerEntry{
		{CustomerID: "C1", BusinessLineCode: "BL01", PostingGroup: "RETAIL", AmountLCY: 1000},
	}, got.Rows)
}

func TestSumField(t *testing.T) {
	in := &domain.Table{
		Columns: []string{"Balance"},
		Rows:    []domain.Row{{"Balance": "1,000.10"}, {"Balance": "-0.10"}, {"Balance": ""}},
	}
	total, warnings, err := SumField(in, GLBalanceSchema, FieldBalance)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, total)
	assert.Len(t, warnings, 3, "two optional columns missing plus one coerced value")
	assert.Equal(t, `1 value(s) in "balance" could not be parsed and were replaced by the default`, warnings[2].Message)

	_, _, err = SumField(domain.NewTable("other"), GLBalanceSchema, FieldBalance)
	var serr *domain.SchemaError
	assert.True(t, errors.As(err, &serr))
}
