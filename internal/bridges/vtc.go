package bridges

import (
	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"

	"github.com/sirupsen/logrus"
)

// VTCAdjustment finds cancelled Non-Marketing refund vouchers that have no
// cancellation or voucher-to-cash posting in the GL, and sums their remaining
// amounts.
type VTCAdjustment struct {
	cfg    config.Config
	logger *logrus.Logger
}

func NewVTCAdjustment(cfg config.Config, logger *logrus.Logger) *VTCAdjustment {
	return &VTCAdjustment{cfg: cfg.Clone(), logger: config.OrDefault(logger)}
}

func (c *VTCAdjustment) Name() string { return domain.BridgeVTCAdjustment }

var vtcProofColumns = []string{
	schema.FieldID,
	schema.FieldBusinessUse,
	schema.FieldVoucherCompany,
	schema.FieldInactiveAt,
	schema.FieldRemainingAmount,
	"fx_rate",
	"adjustment_amount",
}

func (c *VTCAdjustment) Calculate(in Inputs) (domain.BridgeResult, error) {
	required := []string{schema.FieldID, schema.FieldBusinessUse, schema.FieldIsActive, schema.FieldRemainingAmount}
	if c.cfg.RestrictVTCToCutoffMonth {
		required = append(required, schema.FieldInactiveAt)
	}
	if err := requireColumns(schema.VoucherSchema.Dataset, in.VoucherColumns, required...); err != nil {
		return domain.BridgeResult{}, err
	}

	monthStart, monthEnd := schema.MonthBounds(in.Cutoff)

	cancelled := make(map[string]bool)
	evidenceRows := 0
	for _, e := range in.Entries {
		if !isCancellationEvidence(e.Category) {
			continue
		}
		evidenceRows++
		k := key(e.VoucherNo)
		if k == "" {
			k = key(e.DocumentNo)
		}
		if k != "" {
			cancelled[k] = true
		}
	}

	proof := domain.NewTable(vtcProofColumns...)
	var total, local schema.Accumulator
	candidates, matched, converted, fallback := 0, 0, 0, 0
	for _, v := range in.Vouchers {
		if !c.cfg.IsNonMarketing(v.BusinessUse) || v.IsActive || !v.IsValid {
			continue
		}
		if c.cfg.RestrictVTCToCutoffMonth && !schema.InWindow(v.InactiveAt, monthStart, monthEnd) {
			continue
		}
		candidates++
		if cancelled[key(v.ID)] {
			matched++
			continue
		}

		amount := v.RemainingAmount
		var rate any
		if c.cfg.ReportingCurrency != "" {
			if r, ok := c.cfg.FXRate(v.Company); ok {
				amount = schema.Sum(0, v.RemainingAmount*r)
				rate = r
				converted++
			} else {
				fallback++
				bridgeLogger(c.logger, c.Name()).WithFields(logrus.Fields{
					"voucher_id": v.ID,
					"company":    v.Company,
				}).Warn("no FX rate for company, using local currency amount")
			}
		}
		local.Add(v.RemainingAmount)
		total.Add(amount)
		proof.Append(domain.Row{
			schema.FieldID:              v.ID,
			schema.FieldBusinessUse:     v.BusinessUse,
			schema.FieldVoucherCompany:  v.Company,
			schema.FieldInactiveAt:      formatDate(v.InactiveAt),
			schema.FieldRemainingAmount: v.RemainingAmount,
			"fx_rate":                   rate,
			"adjustment_amount":         amount,
		})
	}

	metrics := map[string]any{
		"candidate_vouchers":    candidates,
		"matched_vouchers":      matched,
		"unmatched_vouchers":    proof.Len(),
		"cancellation_entries":  evidenceRows,
		"amount_local_currency": local.Float64(),
		"restricted_to_month":   c.cfg.RestrictVTCToCutoffMonth,
	}
	if c.cfg.RestrictVTCToCutoffMonth {
		metrics["month_start"] = monthStart.Format("2006-01-02")
		metrics["month_end"] = monthEnd.Format("2006-01-02")
	}
	if c.cfg.ReportingCurrency != "" {
		metrics["reporting_currency"] = c.cfg.ReportingCurrency
		metrics["fx_converted_vouchers"] = converted
		metrics["fx_fallback_vouchers"] = fallback
	}

	bridgeLogger(c.logger, c.Name()).WithFields(logrus.Fields{
		"candidates": candidates,
		"unmatched":  proof.Len(),
	}).Info("vtc adjustment calculated")

	return domain.BridgeResult{Amount: total.Float64(), Proof: proof, Metrics: metrics}, nil
}
