package gateway

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Extract file names, without extension, inside a source directory.
const (
	FileGLEntries      = "gl_entries"
	FileGLBalances     = "gl_balances"
	FileVouchers       = "vouchers"
	FileVoucherUsage   = "voucher_usage"
	FileCustomerLedger = "customer_ledger"
	DirComponents      = "components"
)

const utf8BOM = "\ufeff"

// ErrExtractNotFound is returned when a required extract file is absent.
var ErrExtractNotFound = errors.New("extract not found")

// CSVExtractRepository implements the ExtractRepository interface for a
// directory of CSV files. An .xlsx file is read when no .csv of the same name
// exists. Every cell is kept as a string; typing happens in the schema layer.
type CSVExtractRepository struct {
	logger *logrus.Logger
}

// NewCSVExtractRepository creates a new repository instance.
func NewCSVExtractRepository(logger *logrus.Logger) *CSVExtractRepository {
	return &CSVExtractRepository{logger: config.OrDefault(logger)}
}

// LoadExtracts reads every extract under dir. gl_entries and gl_balances are
// required; the other extracts are nil when their file is absent.
func (r *CSVExtractRepository) LoadExtracts(ctx context.Context, dir string) (*domain.Extracts, error) {
	ex := &domain.Extracts{Components: make(map[domain.Component]*domain.Table)}

	required := []struct {
		name string
		dst  **domain.Table
	}{
		{FileGLEntries, &ex.GLEntries},
		{FileGLBalances, &ex.GLBalances},
	}
	for _, f := range required {
		t, err := r.readExtract(filepath.Join(dir, f.name))
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("%s in %s: %w", f.name, dir, ErrExtractNotFound)
		}
		*f.dst = t
	}

	optional := []struct {
		name string
		dst  **domain.Table
	}{
		{FileVouchers, &ex.Vouchers},
		{FileVoucherUsage, &ex.Usage},
		{FileCustomerLedger, &ex.CustomerLedger},
	}
	for _, f := range optional {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := r.readExtract(filepath.Join(dir, f.name))
		if err != nil {
			return nil, err
		}
		*f.dst = t
	}

	for _, c := range domain.TargetComponents {
		t, err := r.readExtract(filepath.Join(dir, DirComponents, string(c)))
		if err != nil {
			return nil, err
		}
		if t != nil {
			ex.Components[c] = t
		}
	}

	r.logger.WithFields(logrus.Fields{
		"module":     "gateway",
		"dir":        dir,
		"gl_entries": ex.GLEntries.Len(),
		"components": len(ex.Components),
	}).Info("extracts loaded")
	return ex, nil
}

// readExtract reads base.csv, or base.xlsx when there is no CSV. It returns a
// nil table when neither exists.
func (r *CSVExtractRepository) readExtract(base string) (*domain.Table, error) {
	if t, err := ReadCSVTable(base + ".csv"); err == nil || !errors.Is(err, os.ErrNotExist) {
		return t, err
	}
	t, err := ReadXLSXTable(base + ".xlsx")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return t, err
}

// ReadCSVTable reads a CSV file with a header row into a table.
func ReadCSVTable(path string) (*domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open extract file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return domain.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	t := domain.NewTable(cleanHeader(header)...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		t.Append(toRow(t.Columns, record))
	}
	return t, nil
}

// ReadXLSXTable reads the first sheet of a workbook; its first row is the header.
func ReadXLSXTable(path string) (*domain.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open extract file %s: %w", path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.NewTable(), nil
	}
	// Raw values keep numbers unformatted; date cells come back as serials
	// and are converted using their number format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s from %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return domain.NewTable(), nil
	}

	dates := newDateCells(f, sheets[0])
	t := domain.NewTable(cleanHeader(rows[0])...)
	for i, record := range rows[1:] {
		row := toRow(t.Columns, record)
		for j, c := range t.Columns {
			if j >= len(record) {
				break
			}
			if ts, ok := dates.at(j+1, i+2, record[j]); ok {
				row[c] = ts
			}
		}
		t.Append(row)
	}
	return t, nil
}

// dateCells recognises numeric cells whose style is a date format.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateCells) at(col, row int, raw string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return time.Time{}, false
	}
	styleID, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || !d.isDateStyle(styleID) {
		return time.Time{}, false
	}
	ts, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (d *dateCells) isDateStyle(id int) bool {
	if isDate, ok := d.styles[id]; ok {
		return isDate
	}
	isDate := false
	if style, err := d.f.GetStyle(id); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isBuiltInDateFormat(style.NumFmt)
		}
	}
	d.styles[id] = isDate
	return isDate
}

// isBuiltInDateFormat covers the built-in date and date-time number formats,
// including the East Asian locale ranges.
func isBuiltInDateFormat(id int) bool {
	return (id >= 14 && id <= 17) || id == 22 || (id >= 27 && id <= 36) || (id >= 50 && id <= 58)
}

// isDateFormatCode reports whether a custom number format renders a date.
// Quoted literals and bracketed sections such as colors are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "yd")
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// toRow maps a record onto the header. Missing trailing cells are nil so the
// schema layer treats them as absent values.
func toRow(columns []string, record []string) domain.Row {
	row := make(domain.Row, len(columns))
	for i, c := range columns {
		if i < len(record) {
			row[c] = record[i]
		} else {
			row[c] = nil
		}
	}
	return row
}
