package gateway

import (
	"fmt"
	"sort"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Evidence workbook sheet names.
const (
	SheetSummary    = "Summary"
	SheetClassified = "Classified"
)

// maxSheetName is the sheet name length limit of the xlsx format.
const maxSheetName = 31

// XLSXEvidenceWriter renders a reconciliation report as an audit workbook: a
// Summary sheet, one sheet per bridge proof and the classified GL entries.
type XLSXEvidenceWriter struct {
	logger *logrus.Logger
}

func NewXLSXEvidenceWriter(logger *logrus.Logger) *XLSXEvidenceWriter {
	return &XLSXEvidenceWriter{logger: config.OrDefault(logger)}
}

// Write builds the workbook and saves it to path.
func (w *XLSXEvidenceWriter) Write(report *domain.Report, path string) error {
	f, err := w.Build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write %s: %w", path, err)
	}
	w.logger.WithFields(logrus.Fields{
		"module": "gateway",
		"path":   path,
		"run_id": report.RunID,
		"sheets": len(f.GetSheetList()),
	}).Info("evidence workbook written")
	return nil
}

// Build returns the workbook for report. The caller owns the returned file.
func (w *XLSXEvidenceWriter) Build(report *domain.Report) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("xlsx build: no report")
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, report); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx summary: %w", err)
	}

	names := make([]string, 0, len(report.Bridges))
	for name := range report.Bridges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		proof := report.Proofs[name]
		if proof == nil {
			proof = domain.NewTable()
		}
		if err := writeTable(f, sheetName(name), proof); err != nil {
			f.Close()
			return nil, fmt.Errorf("xlsx proof %s: %w", name, err)
		}
	}

	classified := report.Classified
	if classified == nil {
		classified = domain.NewTable()
	}
	if err := writeTable(f, SheetClassified, classified); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx classified: %w", err)
	}

	index, _ := f.GetSheetIndex(SheetSummary)
	f.SetActiveSheet(index)
	return f, nil
}

func writeSummary(f *excelize.File, report *domain.Report) error {
	rows := [][]any{
		{"Run ID", report.RunID},
		{"Timestamp", report.Timestamp},
		{"Cutoff Date", report.CutoffDate},
		{"Status", string(report.Status)},
		{"Actuals", numberOrBlank(report.Actuals)},
		{"Target Values", numberOrBlank(report.TargetValues)},
		{"Variance", numberOrBlank(report.Variance)},
		{},
		{"Component", "Total"},
	}
	for _, c := range domain.TargetComponents {
		rows = append(rows, []any{string(c), numberOrBlank(report.ComponentTotals[c])})
	}

	rows = append(rows, []any{}, []any{"Bridge", "Amount", "Proof Rows", "Error"})
	names := make([]string, 0, len(report.Bridges))
	for name := range report.Bridges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := report.Bridges[name]
		errText := ""
		if b.Error != nil {
			errText = b.Error.Error()
		}
		rows = append(rows, []any{name, numberOrBlank(b.Amount), b.ProofRowCount, errText})
	}

	if len(report.Warnings) > 0 {
		rows = append(rows, []any{}, []any{"Warnings"})
		for _, msg := range report.Warnings {
			rows = append(rows, []any{msg})
		}
	}

	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 28)
	_ = f.SetColWidth(SheetSummary, "B", "B", 22)
	return nil
}

func writeTable(f *excelize.File, sheet string, t *domain.Table) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := range t.Rows {
		values := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			values[j] = t.Value(i, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func numberOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}
