package bridges

import (
	"math"
	"sort"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"

	"github.com/sirupsen/logrus"
)

// BusinessLineReclass proposes moving balances of customers spread over
// several business lines onto one primary line. Advisory only: every row is
// flagged for review and nothing is posted.
type BusinessLineReclass struct {
	epsilon float64
	logger  *logrus.Logger
}

func NewBusinessLineReclass(cfg config.Config, logger *logrus.Logger) *BusinessLineReclass {
	return &BusinessLineReclass{epsilon: cfg.ReclassEpsilon, logger: config.OrDefault(logger)}
}

func (c *BusinessLineReclass) Name() string { return domain.BridgeBusinessLineReclass }

type lineBalance struct {
	code    string
	balance float64
}

func (c *BusinessLineReclass) Calculate(in Inputs) (domain.BridgeResult, error) {
	if err := requireColumns(schema.CustomerLedgerSchema.Dataset, in.CustomerColumns,
		schema.FieldCustomerID, schema.FieldBusinessLine, schema.FieldAmountLCY); err != nil {
		return domain.BridgeResult{}, err
	}

	sums := make(map[string]map[string]*schema.Accumulator)
	skipped := 0
	for _, e := range in.CustomerLedger {
		customer, line := key(e.CustomerID), key(e.BusinessLineCode)
		if customer == "" || line == "" {
			skipped++
			continue
		}
		lines, ok := sums[customer]
		if !ok {
			lines = make(map[string]*schema.Accumulator)
			sums[customer] = lines
		}
		acc, ok := lines[line]
		if !ok {
			acc = &schema.Accumulator{}
			lines[line] = acc
		}
		acc.Add(e.AmountLCY)
	}

	customers := make([]string, 0, len(sums))
	for customer := range sums {
		customers = append(customers, customer)
	}
	sort.Strings(customers)

	proof := domain.NewTable(schema.FieldCustomerID, schema.FieldBusinessLine, "balance",
		"proposed_primary", "is_primary", "reclass_amount", "review_required")
	var total schema.Accumulator
	multiLine := 0
	for _, customer := range customers {
		balances := make([]lineBalance, 0, len(sums[customer]))
		for code, acc := range sums[customer] {
			b := acc.Float64()
			if math.Abs(b) < c.epsilon {
				continue
			}
			balances = append(balances, lineBalance{code: code, balance: b})
		}
		if len(balances) < 2 {
			continue
		}
		multiLine++
		sort.Slice(balances, func(i, j int) bool { return balances[i].code < balances[j].code })

		primary := primaryLine(balances)
		for _, lb := range balances {
			reclass := 0.0
			if lb.code != primary {
				reclass = lb.balance
			}
			total.Add(reclass)
			proof.Append(domain.Row{
				schema.FieldCustomerID:   customer,
				schema.FieldBusinessLine: lb.code,
				"balance":                lb.balance,
				"proposed_primary":       primary,
				"is_primary":             lb.code == primary,
				"reclass_amount":         reclass,
				"review_required":        true,
			})
		}
	}

	metrics := map[string]any{
		"customers":             len(customers),
		"multi_line_customers":  multiLine,
		"rows_without_line":     skipped,
		"epsilon":               c.epsilon,
		"proposed_reclass_rows": proof.Len() - multiLine,
	}
	bridgeLogger(c.logger, c.Name()).WithField("multi_line_customers", multiLine).Info("business line reclass proposed")

	return domain.BridgeResult{Amount: total.Float64(), Proof: proof, Metrics: metrics}, nil
}

// primaryLine picks the line with the largest absolute balance. Ties go to
// the alphabetically first code; balances must be sorted by code.
func primaryLine(balances []lineBalance) string {
	if len(balances) == 0 {
		return ""
	}
	best := balances[0]
	for _, lb := range balances[1:] {
		if math.Abs(lb.balance) > math.Abs(best.balance) {
			best = lb
		}
	}
	return best.code
}
