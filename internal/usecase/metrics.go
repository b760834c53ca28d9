package usecase

import (
	"fmt"
	"math"

	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"
)

// Status returns RECONCILED when |variance| is strictly below the threshold.
func Status(variance, threshold float64) domain.ReconciliationStatus {
	if math.Abs(variance) < threshold {
		return domain.StatusReconciled
	}
	return domain.StatusVarianceDetected
}

// computeMetrics sums the GL balances (actuals) and every target component.
// A component that was not supplied gets a null total and a warning; a
// supplied extract without an amount column aborts.
func computeMetrics(ex *domain.Extracts, threshold float64) (domain.ReconciliationResult, []domain.Warning, error) {
	var warnings []domain.Warning

	actuals, w, err := schema.SumField(ex.GLBalances, schema.GLBalanceSchema, schema.FieldBalance)
	if err != nil {
		return domain.ReconciliationResult{}, nil, fmt.Errorf("could not compute actuals: %w", err)
	}
	warnings = append(warnings, w...)

	totals := make(map[domain.Component]*float64, len(domain.TargetComponents))
	var target schema.Accumulator
	for _, c := range domain.TargetComponents {
		t, ok := ex.Components[c]
		if !ok || t == nil {
			totals[c] = nil
			warnings = append(warnings, domain.Warning{Source: string(c), Message: "target component not supplied"})
			continue
		}
		sum, w, err := schema.SumField(t, schema.ComponentSchema.WithDataset(string(c)), schema.FieldAmount)
		if err != nil {
			return domain.ReconciliationResult{}, nil, fmt.Errorf("could not compute target component %s: %w", c, err)
		}
		warnings = append(warnings, w...)
		totals[c] = &sum
		target.Add(sum)
	}

	targetValues := target.Float64()
	variance := schema.Sum(actuals, -targetValues)
	return domain.ReconciliationResult{
		Actuals:         actuals,
		TargetValues:    targetValues,
		Variance:        variance,
		Status:          Status(variance, threshold),
		ComponentTotals: totals,
	}, warnings, nil
}
