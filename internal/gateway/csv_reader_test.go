package gateway

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVTable(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected *domain.Table
		wantErr  bool
	}{
		{
			name:  "header and rows",
			lines: []string{"id,Amount", "V1,\"1,234.56\"", "V2,"},
			expected: &domain.Table{
				Columns: []string{"id", "Amount"},
				Rows: []domain.Row{
					{"id": "V1", "Amount": "1,234.56"},
					{"id": "V2", "Amount": ""},
				},
			},
		},
		{
			name:  "byte order mark and padded header",
			lines: []string{"\ufeffid , Amount", "V1,10"},
			expected: &domain.Table{
				Columns: []string{"id", "Amount"},
				Rows:    []domain.Row{{"id": "V1", "Amount": "10"}},
			},
		},
		{
			name:  "short record",
			lines: []string{"id,Amount,Comment", "V1,10"},
			expected: &domain.Table{
				Columns: []string{"id", "Amount", "Comment"},
				Rows:    []domain.Row{{"id": "V1", "Amount": "10", "Comment": nil}},
			},
		},
		{
			name:     "header only",
			lines:    []string{"id,Amount"},
			expected: &domain.Table{Columns: []string{"id", "Amount"}, Rows: []domain.Row{}},
		},
		{
			name:     "empty file",
			lines:    nil,
			expected: &domain.Table{Columns: []string{}, Rows: []domain.Row{}},
		},
		{
			name:    "unterminated quote",
			lines:   []string{"id,Amount", "\"V1,10"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLines(t, t.TempDir(), "extract.csv", tt.lines)
			got, err := ReadCSVTable(path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReadCSVTable_FileErrors(t *testing.T) {
	_, err := ReadCSVTable(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCSVExtractRepository_LoadExtracts(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "gl_entries.csv", [][]string{
		{"G/L Account No_", "Amount", "Description"},
		{"18412", "-50", "refund"},
	})
	writeCSV(t, dir, "gl_balances.csv", [][]string{{"Balance"}, {"100"}})
	writeCSV(t, dir, "voucher_usage.csv", [][]string{{"voucher_id", "amount_used"}, {"V1", "5"}})
	require.NoError(t, os.Mkdir(filepath.Join(dir, DirComponents), 0o755))
	writeCSV(t, filepath.Join(dir, DirComponents), "vouchers.csv", [][]string{{"Amount"}, {"60"}, {"40"}})

	// customer ledger supplied as a workbook
	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"customer_id", "business_line_code", "amount_lcy"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]any{"C1", "BL01", "10"}))
	require.NoError(t, wb.SaveAs(filepath.Join(dir, "customer_ledger.xlsx")))
	require.NoError(t, wb.Close())

	repo := NewCSVExtractRepository(config.NewLogger("error", "json", io.Discard))
	ex, err := repo.LoadExtracts(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, ex.GLEntries.Len())
	assert.Equal(t, "-50", ex.GLEntries.Rows[0]["Amount"])
	assert.Equal(t, 1, ex.GLBalances.Len())
	assert.Nil(t, ex.Vouchers)
	assert.Equal(t, 1, ex.Usage.Len())
	require.NotNil(t, ex.CustomerLedger)
	assert.Equal(t, []string{"customer_id", "business_line_code", "amount_lcy"}, ex.CustomerLedger.Columns)
	assert.Equal(t, "BL01", ex.CustomerLedger.Rows[0]["business_line_code"])
	require.Len(t, ex.Components, 1)
	assert.Equal(t, 2, ex.Components[domain.ComponentVouchers].Len())
}

func TestReadXLSXTable_DateCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vouchers.xlsx")
	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"id", "inactive_at", "created_at", "remaining_amount"}))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "V1"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))

	dateFmt := "yyyy-mm-dd"
	dateStyle, err := wb.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	require.NoError(t, err)
	require.NoError(t, wb.SetCellValue("Sheet1", "C2", 45900))
	require.NoError(t, wb.SetCellStyle("Sheet1", "C2", "C2", dateStyle))

	amountFmt := "#,##0.00"
	amountStyle, err := wb.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	require.NoError(t, err)
	require.NoError(t, wb.SetCellValue("Sheet1", "D2", 1234.5))
	require.NoError(t, wb.SetCellStyle("Sheet1", "D2", "D2", amountStyle))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	got, err := ReadXLSXTable(path)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	row := got.Rows[0]

	assert.Equal(t, "V1", row["id"])
	inactive, ok := row["inactive_at"].(time.Time)
	require.True(t, ok, "inactive_at should be a time, got %T", row["inactive_at"])
	assert.Equal(t, "2025-09-15", inactive.Format(time.DateOnly))
	created, ok := row["created_at"].(time.Time)
	require.True(t, ok, "created_at should be a time, got %T", row["created_at"])
	assert.Equal(t, "2025-08-31", created.Format(time.DateOnly))
	assert.Equal(t, "1234.5", row["remaining_amount"])

	vouchers, err := schema.DecodeVouchers(got)
	require.NoError(t, err)
	require.Len(t, vouchers.Rows, 1)
	assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), schema.DateOnly(vouchers.Rows[0].InactiveAt))
	assert.Equal(t, 1234.5, vouchers.Rows[0].RemainingAmount)
	for _, w := range vouchers.Warnings {
		assert.NotContains(t, w.Message, "could not be parsed")
	}
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "yyyy-mm-dd", want: true},
		{code: "dd/mm/yyyy hh:mm", want: true},
		{code: "[$-409]d-mmm-yy;@", want: true},
		{code: "#,##0.00", want: false},
		{code: "[Red]0.00", want: false},
		{code: `0.00 "days"`, want: false},
		{code: "hh:mm:ss", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestCSVExtractRepository_LoadExtracts_MissingRequired(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "gl_entries.csv", [][]string{{"Amount"}, {"1"}})

	repo := NewCSVExtractRepository(config.NewLogger("error", "json", io.Discard))
	ex, err := repo.LoadExtracts(context.Background(), dir)
	assert.Nil(t, ex)
	assert.ErrorIs(t, err, ErrExtractNotFound)
	assert.Contains(t, err.Error(), "gl_balances")
}

func TestCSVExtractRepository_LoadExtracts_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "gl_entries.csv", [][]string{{"Amount"}, {"1"}})
	writeCSV(t, dir, "gl_balances.csv", [][]string{{"Balance"}, {"1"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewCSVExtractRepository(config.NewLogger("error", "json", io.Discard))
	_, err := repo.LoadExtracts(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeCSV(t *testing.T, dir, name string, data [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := csv.NewWriter(file)
	require.NoError(t, writer.WriteAll(data))
	return path
}

func writeLines(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	for i, line := range lines {
		if i > 0 {
			_, err = file.WriteString("\n")
			require.NoError(t, err)
		}
		_, err = file.WriteString(line)
		require.NoError(t, err)
	}
	return path
}
