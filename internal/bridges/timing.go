package bridges

import (
	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"

	"github.com/sirupsen/logrus"
)

// TimingDifference compares what the usage extract says was consumed against
// the issuance baseline's total amount used, for vouchers that went inactive
// inside the rolling twelve month window ending at the cutoff.
type TimingDifference struct {
	cfg    config.Config
	logger *logrus.Logger
}

func NewTimingDifference(cfg config.Config, logger *logrus.Logger) *TimingDifference {
	return &TimingDifference{cfg: cfg.Clone(), logger: config.OrDefault(logger)}
}

func (c *TimingDifference) Name() string { return domain.BridgeTimingDifference }

var timingProofColumns = []string{
	schema.FieldID,
	schema.FieldBusinessUse,
	schema.FieldInactiveAt,
	schema.FieldTotalAmountUsed,
	"usage_amount",
	"variance",
}

func (c *TimingDifference) Calculate(in Inputs) (domain.BridgeResult, error) {
	if err := requireColumns(schema.VoucherSchema.Dataset, in.VoucherColumns,
		schema.FieldID, schema.FieldIsActive, schema.FieldBusinessUse, schema.FieldInactiveAt, schema.FieldTotalAmountUsed); err != nil {
		return domain.BridgeResult{}, err
	}
	if err := requireColumns(schema.UsageSchema.Dataset, in.UsageColumns, schema.FieldVoucherID); err != nil {
		return domain.BridgeResult{}, err
	}

	start, end := schema.RollingWindow(in.Cutoff)

	usage := make(map[string]*schema.Accumulator)
	for _, u := range in.Usage {
		k := key(u.VoucherID)
		if k == "" {
			continue
		}
		acc, ok := usage[k]
		if !ok {
			acc = &schema.Accumulator{}
			usage[k] = acc
		}
		acc.Add(u.AmountUsed)
	}

	proof := domain.NewTable(timingProofColumns...)
	var total, issued, used schema.Accumulator
	inWindow, withoutUsage := 0, 0
	for _, v := range in.Vouchers {
		if v.IsActive || !c.cfg.IsNonMarketing(v.BusinessUse) {
			continue
		}
		if !schema.InWindow(v.InactiveAt, start, end) {
			continue
		}
		inWindow++

		usageAmount := 0.0
		if acc, ok := usage[key(v.ID)]; ok {
			usageAmount = acc.Float64()
		} else {
			withoutUsage++
		}
		variance := schema.Sum(usageAmount, -v.TotalAmountUsed)
		issued.Add(v.TotalAmountUsed)
		used.Add(usageAmount)
		total.Add(variance)
		if variance == 0 {
			continue
		}
		proof.Append(domain.Row{
			schema.FieldID:              v.ID,
			schema.FieldBusinessUse:     v.BusinessUse,
			schema.FieldInactiveAt:      formatDate(v.InactiveAt),
			schema.FieldTotalAmountUsed: v.TotalAmountUsed,
			"usage_amount":              usageAmount,
			"variance":                  variance,
		})
	}

	metrics := map[string]any{
		"window_start":            start.Format("2006-01-02"),
		"window_end":              end.Format("2006-01-02"),
		"vouchers_in_window":      inWindow,
		"vouchers_without_usage":  withoutUsage,
		"vouchers_with_variance":  proof.Len(),
		"issuance_amount_used":    issued.Float64(),
		"usage_amount":            used.Float64(),
		"usage_vouchers_observed": len(usage),
	}

	bridgeLogger(c.logger, c.Name()).WithFields(logrus.Fields{
		"window_start": metrics["window_start"],
		"window_end":   metrics["window_end"],
		"in_window":    inWindow,
	}).Info("timing difference calculated")

	return domain.BridgeResult{Amount: total.Float64(), Proof: proof, Metrics: metrics}, nil
}
