// Package rules holds the bridge rule registry and the generic classifier
// that applies it to arbitrary transactional tables.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
)

// Columns the default rules trigger on. They are produced by categorization.
const (
	ColumnCategory        = "category"
	ColumnVoucherType     = "voucher_type"
	ColumnIntegrationType = "integration_type"
	ColumnDocumentType    = "document_type"
	ColumnBalAccountType  = "bal_account_type"
)

var ErrInvalidRule = errors.New("invalid bridge rule")

// Registry is an immutable, priority-ordered set of bridge rules.
type Registry struct {
	rules []domain.BridgeRule
}

// NewRegistry validates the rules and orders them by PriorityRank. Rules with
// equal rank keep the order they were passed in.
func NewRegistry(rules ...domain.BridgeRule) (*Registry, error) {
	seen := make(map[string]bool, len(rules))
	ordered := make([]domain.BridgeRule, 0, len(rules))
	for i, r := range rules {
		key := strings.TrimSpace(r.Key)
		if key == "" {
			return nil, fmt.Errorf("%w: rule #%d has no key", ErrInvalidRule, i)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidRule, key)
		}
		seen[key] = true
		if len(r.Triggers) == 0 {
			return nil, fmt.Errorf("%w: %q has no triggers", ErrInvalidRule, key)
		}
		for _, tr := range r.Triggers {
			if strings.TrimSpace(tr.Column) == "" || len(tr.Values) == 0 {
				return nil, fmt.Errorf("%w: %q has an empty trigger", ErrInvalidRule, key)
			}
		}
		ordered = append(ordered, copyRule(r))
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriorityRank < ordered[j].PriorityRank
	})
	return &Registry{rules: ordered}, nil
}

// MustRegistry is NewRegistry for static rule sets.
func MustRegistry(rules ...domain.BridgeRule) *Registry {
	r, err := NewRegistry(rules...)
	if err != nil {
		panic(err)
	}
	return r
}

// Rules returns the rules in evaluation order. The result is a copy.
func (r *Registry) Rules() []domain.BridgeRule {
	out := make([]domain.BridgeRule, len(r.rules))
	for i, rule := range r.rules {
		out[i] = copyRule(rule)
	}
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

func copyRule(r domain.BridgeRule) domain.BridgeRule {
	out := r
	out.Triggers = make([]domain.Trigger, len(r.Triggers))
	for i, tr := range r.Triggers {
		out.Triggers[i] = domain.Trigger{Column: tr.Column, Values: append([]string(nil), tr.Values...)}
	}
	out.DrGLAccounts = append([]string(nil), r.DrGLAccounts...)
	out.CrGLAccounts = append([]string(nil), r.CrGLAccounts...)
	out.RequiredEnrichments = append([]string(nil), r.RequiredEnrichments...)
	return out
}

// DefaultRules are the voucher accrual bridges, with GL accounts taken from cfg.
func DefaultRules(cfg config.Config) []domain.BridgeRule {
	gl := cfg.GLAccounts
	return []domain.BridgeRule{
		{
			Key:                 "VTC_BANK_REFUND",
			Title:               "Voucher refunded to cash through bank",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryVTC, domain.CategoryVTCManual}}, {Column: ColumnBalAccountType, Values: []string{"Bank Account"}}},
			DrGLAccounts:        []string{gl.VoucherAccrual},
			CrGLAccounts:        []string{gl.Bank},
			RequiredEnrichments: []string{"bank_statement", "refund_ticket"},
			PriorityRank:        1,
		},
		{
			Key:                 "VTC_MANUAL",
			Title:               "Manual voucher-to-cash adjustment",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryVTC, domain.CategoryVTCManual}}},
			DrGLAccounts:        []string{gl.VoucherAccrual},
			CrGLAccounts:        []string{gl.RefundLiability},
			RequiredEnrichments: []string{"refund_ticket"},
			PriorityRank:        2,
		},
		{
			Key:                 "CANCELLATION_STORE_CREDIT",
			Title:               "Store credit voucher cancelled by credit memo",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryCancellationStoreCredit}}},
			DrGLAccounts:        []string{gl.VoucherAccrual},
			CrGLAccounts:        []string{gl.CustomerReceivable},
			RequiredEnrichments: []string{"voucher_master"},
			PriorityRank:        3,
		},
		{
			Key:                 "CANCELLATION_APOLOGY",
			Title:               "Apology voucher cancelled",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryCancellationApology}}},
			DrGLAccounts:        []string{gl.VoucherAccrual},
			CrGLAccounts:        []string{gl.MarketingExpense},
			RequiredEnrichments: []string{"voucher_master"},
			PriorityRank:        4,
		},
		{
			Key:                 "VOUCHER_EXPIRY",
			Title:               "Expired voucher released to breakage",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryExpired}}},
			DrGLAccounts:        []string{gl.VoucherAccrual},
			CrGLAccounts:        []string{gl.VoucherBreakage},
			RequiredEnrichments: []string{"voucher_master"},
			PriorityRank:        5,
		},
		{
			Key:                 "VOUCHER_USAGE",
			Title:               "Voucher applied on customer order",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryUsage}}, {Column: ColumnIntegrationType, Values: []string{string(domain.IntegrationTypeIntegration)}}},
			DrGLAccounts:        []string{gl.VoucherAccrual},
			CrGLAccounts:        []string{gl.CustomerReceivable},
			RequiredEnrichments: []string{"voucher_usage"},
			PriorityRank:        6,
		},
		{
			Key:                 "REFUND_ISSUANCE",
			Title:               "Refund voucher issued",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryRefund}}},
			DrGLAccounts:        []string{gl.RefundLiability},
			CrGLAccounts:        []string{gl.VoucherAccrual},
			RequiredEnrichments: []string{"voucher_master", "refund_ticket"},
			PriorityRank:        7,
		},
		{
			Key:                 "APOLOGY_ISSUANCE",
			Title:               "Apology voucher issued",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryApology}}},
			DrGLAccounts:        []string{gl.MarketingExpense},
			CrGLAccounts:        []string{gl.VoucherAccrual},
			RequiredEnrichments: []string{"voucher_master"},
			PriorityRank:        8,
		},
		{
			Key:                 "JFORCE_ISSUANCE",
			Title:               "JForce voucher issued",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryJForce}}},
			DrGLAccounts:        []string{gl.MarketingExpense},
			CrGLAccounts:        []string{gl.VoucherAccrual},
			RequiredEnrichments: []string{"voucher_master"},
			PriorityRank:        9,
		},
		{
			Key:                 "STORE_CREDIT_ISSUANCE",
			Title:               "Store credit voucher issued",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryIssuance}}, {Column: ColumnVoucherType, Values: []string{"store_credit", "Jpay store_credit"}}},
			DrGLAccounts:        []string{gl.CustomerReceivable},
			CrGLAccounts:        []string{gl.VoucherAccrual},
			RequiredEnrichments: []string{"voucher_master"},
			PriorityRank:        10,
		},
		{
			Key:                 "GENERIC_ISSUANCE",
			Title:               "Voucher issued",
			Triggers:            []domain.Trigger{{Column: ColumnCategory, Values: []string{domain.CategoryIssuance}}},
			DrGLAccounts:        []string{gl.MarketingExpense},
			CrGLAccounts:        []string{gl.VoucherAccrual},
			RequiredEnrichments: []string{"voucher_master"},
			PriorityRank:        11,
		},
	}
}

// DefaultRegistry returns the registry built from DefaultRules.
func DefaultRegistry(cfg config.Config) *Registry {
	return MustRegistry(DefaultRules(cfg)...)
}
