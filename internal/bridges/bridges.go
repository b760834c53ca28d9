// Package bridges computes the reconciling items that explain residual
// variance. Every calculator is a pure function of its inputs: it returns an
// amount, the unresolved rows as proof, and metrics.
package bridges

import (
	"strings"
	"time"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"

	"github.com/sirupsen/logrus"
)

// Inputs are the decoded, categorized extracts shared by all calculators.
//
// A nil column set means the rows were built in code and every field is
// considered present.
type Inputs struct {
	Cutoff          time.Time
	Entries         []domain.CategorizedEntry
	Vouchers        []domain.Voucher
	VoucherColumns  domain.ColumnSet
	Usage           []domain.UsageRecord
	UsageColumns    domain.ColumnSet
	CustomerLedger  []domain.CustomerLedgerEntry
	CustomerColumns domain.ColumnSet
}

// Calculator is one bridge.
type Calculator interface {
	Name() string
	Calculate(in Inputs) (domain.BridgeResult, error)
}

// All returns the four bridges in reporting order.
func All(cfg config.Config, logger *logrus.Logger) []Calculator {
	return []Calculator{
		NewVTCAdjustment(cfg, logger),
		NewTimingDifference(cfg, logger),
		NewCustomerPostingGroup(logger),
		NewBusinessLineReclass(cfg, logger),
	}
}

func requireColumns(dataset string, cols domain.ColumnSet, fields ...string) error {
	if cols == nil {
		return nil
	}
	for _, f := range fields {
		if !cols.Has(f) {
			return &domain.SchemaError{Dataset: dataset, Field: f}
		}
	}
	return nil
}

func formatDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.DateOnly)
}

func key(s string) string {
	return strings.TrimSpace(s)
}

// isCancellationEvidence reports whether a categorized entry proves that a
// voucher was cancelled or paid out.
func isCancellationEvidence(category string) bool {
	return strings.HasPrefix(category, "Cancellation") ||
		category == domain.CategoryVTC ||
		category == domain.CategoryVTCManual
}

func bridgeLogger(logger *logrus.Logger, name string) *logrus.Entry {
	return config.OrDefault(logger).WithFields(logrus.Fields{
		"module": "bridges",
		"bridge": name,
	})
}
