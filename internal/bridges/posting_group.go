package bridges

import (
	"sort"
	"strings"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"

	"github.com/sirupsen/logrus"
)

// CustomerPostingGroup flags customers booked under more than one customer
// posting group. It identifies only; its amount is always zero.
type CustomerPostingGroup struct {
	logger *logrus.Logger
}

func NewCustomerPostingGroup(logger *logrus.Logger) *CustomerPostingGroup {
	return &CustomerPostingGroup{logger: config.OrDefault(logger)}
}

func (c *CustomerPostingGroup) Name() string { return domain.BridgeCustomerPostingGroup }

func (c *CustomerPostingGroup) Calculate(in Inputs) (domain.BridgeResult, error) {
	if err := requireColumns(schema.CustomerLedgerSchema.Dataset, in.CustomerColumns,
		schema.FieldCustomerID, schema.FieldPostingGroup); err != nil {
		return domain.BridgeResult{}, err
	}

	groups := make(map[string]map[string]bool)
	for _, e := range in.CustomerLedger {
		customer := key(e.CustomerID)
		if customer == "" {
			continue
		}
		set, ok := groups[customer]
		if !ok {
			set = make(map[string]bool)
			groups[customer] = set
		}
		if g := key(e.PostingGroup); g != "" {
			set[g] = true
		}
	}

	customers := make([]string, 0, len(groups))
	for customer := range groups {
		customers = append(customers, customer)
	}
	sort.Strings(customers)

	proof := domain.NewTable(schema.FieldCustomerID, "posting_groups", "posting_group_count", "review_required")
	for _, customer := range customers {
		set := groups[customer]
		if len(set) < 2 {
			continue
		}
		proof.Append(domain.Row{
			schema.FieldCustomerID: customer,
			"posting_groups":       joinSorted(set),
			"posting_group_count":  len(set),
			"review_required":      true,
		})
	}

	metrics := map[string]any{
		"customers":         len(customers),
		"flagged_customers": proof.Len(),
	}
	bridgeLogger(c.logger, c.Name()).WithField("flagged", proof.Len()).Info("customer posting groups checked")

	return domain.BridgeResult{Amount: 0, Proof: proof, Metrics: metrics}, nil
}

// joinSorted renders a set as a sorted, comma separated string.
func joinSorted(set map[string]bool) string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return strings.Join(values, ", ")
}
