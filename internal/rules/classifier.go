package rules

import (
	"sort"
	"strings"

	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"
)

// Derived columns written by Classify.
const (
	ColumnBridgeKey           = "bridge_key"
	ColumnBridgeTitle         = "bridge_title"
	ColumnDrGLAccounts        = "dr_gl_accounts"
	ColumnCrGLAccounts        = "cr_gl_accounts"
	ColumnRequiredEnrichments = "required_enrichments"
)

var derivedColumns = []string{
	ColumnBridgeKey,
	ColumnBridgeTitle,
	ColumnDrGLAccounts,
	ColumnCrGLAccounts,
	ColumnRequiredEnrichments,
}

// Classifier applies a registry to rows: the first rule, in priority order,
// whose triggers all match wins. It holds no mutable state.
type Classifier struct {
	registry *Registry
}

func NewClassifier(registry *Registry) *Classifier {
	return &Classifier{registry: registry}
}

// ClassifyRow returns the classification of the first matching rule.
func (c *Classifier) ClassifyRow(row domain.Row) (domain.ClassificationResult, bool) {
	for _, rule := range c.registry.rules {
		if matches(rule, row) {
			return domain.ClassificationResult{
				BridgeKey:           rule.Key,
				BridgeTitle:         rule.Title,
				DrGLAccounts:        strings.Join(rule.DrGLAccounts, ", "),
				CrGLAccounts:        strings.Join(rule.CrGLAccounts, ", "),
				RequiredEnrichments: strings.Join(rule.RequiredEnrichments, ", "),
			}, true
		}
	}
	return domain.ClassificationResult{}, false
}

// Classify returns a copy of t with the derived bridge columns. Rows keep
// their order; rows that already carry a bridge_key are left as they are;
// unmatched rows get nil derived values.
func (c *Classifier) Classify(t *domain.Table) *domain.Table {
	out := t.Clone()
	if out == nil {
		out = domain.NewTable()
	}
	for _, col := range derivedColumns {
		out.AddColumn(col)
	}
	for _, row := range out.Rows {
		if schema.CoerceString(row[ColumnBridgeKey]) != "" {
			continue
		}
		res, ok := c.ClassifyRow(row)
		if !ok {
			for _, col := range derivedColumns {
				row[col] = nil
			}
			continue
		}
		row[ColumnBridgeKey] = res.BridgeKey
		row[ColumnBridgeTitle] = res.BridgeTitle
		row[ColumnDrGLAccounts] = res.DrGLAccounts
		row[ColumnCrGLAccounts] = res.CrGLAccounts
		row[ColumnRequiredEnrichments] = res.RequiredEnrichments
	}
	return out
}

// Unclassified is the Summary key for rows no rule matched.
const Unclassified = "(unclassified)"

// Summary counts classified rows per bridge key.
func Summary(t *domain.Table) map[string]int {
	counts := make(map[string]int)
	if t == nil {
		return counts
	}
	for _, row := range t.Rows {
		k := schema.CoerceString(row[ColumnBridgeKey])
		if k == "" {
			k = Unclassified
		}
		counts[k]++
	}
	return counts
}

// SortedKeys returns the keys of a count map in ascending order.
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func matches(rule domain.BridgeRule, row domain.Row) bool {
	for _, tr := range rule.Triggers {
		v, ok := row[tr.Column]
		if !ok {
			return false
		}
		s := schema.CoerceString(v)
		if s == "" {
			return false
		}
		if !acceptsValue(tr.Values, s) {
			return false
		}
	}
	return true
}

func acceptsValue(values []string, v string) bool {
	for _, accepted := range values {
		if strings.EqualFold(strings.TrimSpace(accepted), v) {
			return true
		}
	}
	return false
}
