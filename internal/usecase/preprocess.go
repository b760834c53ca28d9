package usecase

import (
	"fmt"
	"time"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/domain"
	"sox-reconciler/internal/schema"
)

// prepared holds the decoded, in-scope extracts handed to categorization and
// the bridges.
type prepared struct {
	entries  []domain.GLEntry
	vouchers schema.Decoded[domain.Voucher]
	usage    schema.Decoded[domain.UsageRecord]
	ledger   schema.Decoded[domain.CustomerLedgerEntry]
	warnings []domain.Warning
}

// preprocess decodes the extracts onto the canonical schema, applies the scope
// filters and runs the data quality checks. A missing required column in any
// supplied, non-empty extract aborts the run.
func preprocess(cfg config.Config, cutoff time.Time, ex *domain.Extracts) (*prepared, error) {
	p := &prepared{}

	gl, err := schema.DecodeGLEntries(ex.GLEntries)
	if err != nil {
		return nil, fmt.Errorf("could not decode gl entries: %w", err)
	}
	p.warnings = append(p.warnings, gl.Warnings...)
	p.entries = scopeEntries(cfg, cutoff, gl, &p.warnings)

	if w, absent := missingExtract(schema.VoucherSchema.Dataset, ex.Vouchers); absent {
		p.warnings = append(p.warnings, w)
		p.vouchers.Present = domain.ColumnSet{}
	} else if p.vouchers, err = schema.DecodeVouchers(ex.Vouchers); err != nil {
		return nil, fmt.Errorf("could not decode vouchers: %w", err)
	}
	p.warnings = append(p.warnings, p.vouchers.Warnings...)
	if dup := duplicateVoucherIDs(p.vouchers.Rows); dup > 0 {
		p.warnings = append(p.warnings, domain.Warning{
			Source:  schema.VoucherSchema.Dataset,
			Message: fmt.Sprintf("%d duplicate voucher id(s); the first occurrence is used for lookups", dup),
		})
	}

	if w, absent := missingExtract(schema.UsageSchema.Dataset, ex.Usage); absent {
		p.warnings = append(p.warnings, w)
		p.usage.Present = domain.ColumnSet{}
	} else if p.usage, err = schema.DecodeUsage(ex.Usage); err != nil {
		return nil, fmt.Errorf("could not decode voucher usage: %w", err)
	}
	p.warnings = append(p.warnings, p.usage.Warnings...)

	if w, absent := missingExtract(schema.CustomerLedgerSchema.Dataset, ex.CustomerLedger); absent {
		p.warnings = append(p.warnings, w)
		p.ledger.Present = domain.ColumnSet{}
	} else if p.ledger, err = schema.DecodeCustomerLedger(ex.CustomerLedger); err != nil {
		return nil, fmt.Errorf("could not decode customer ledger: %w", err)
	}
	p.warnings = append(p.warnings, p.ledger.Warnings...)

	return p, nil
}

// scopeEntries keeps entries on the configured voucher accrual accounts and
// companies, posted on or before the cutoff. Entries without a posting date
// are kept and reported.
func scopeEntries(cfg config.Config, cutoff time.Time, gl schema.Decoded[domain.GLEntry], warnings *[]domain.Warning) []domain.GLEntry {
	source := schema.GLEntrySchema.Dataset
	filterAccounts := len(cfg.VoucherAccrualAccounts) > 0
	if filterAccounts && !gl.Present.Has(schema.FieldGLAccount) {
		filterAccounts = false
		*warnings = append(*warnings, domain.Warning{Source: source, Message: "no gl_account column, account scope filter skipped"})
	}
	filterCompanies := len(cfg.Companies) > 0
	if filterCompanies && !gl.Present.Has(schema.FieldCompany) {
		filterCompanies = false
		*warnings = append(*warnings, domain.Warning{Source: source, Message: "no company_code column, company scope filter skipped"})
	}

	out := make([]domain.GLEntry, 0, len(gl.Rows))
	afterCutoff, zeroAmounts, noDate := 0, 0, 0
	for _, e := range gl.Rows {
		if filterAccounts && !cfg.InScopeAccount(e.GLAccount) {
			continue
		}
		if filterCompanies && !cfg.InScopeCompany(e.CompanyCode) {
			continue
		}
		if e.PostingDate.IsZero() {
			noDate++
		} else if schema.DateOnly(e.PostingDate).After(cutoff) {
			afterCutoff++
			continue
		}
		if e.Amount == 0 {
			zeroAmounts++
		}
		out = append(out, e)
	}

	if len(gl.Rows) == 0 {
		*warnings = append(*warnings, domain.Warning{Source: source, Message: "no gl entries supplied"})
	} else if len(out) == 0 {
		*warnings = append(*warnings, domain.Warning{Source: source, Message: "no gl entries left after scope filters"})
	}
	if afterCutoff > 0 {
		*warnings = append(*warnings, domain.Warning{Source: source, Message: fmt.Sprintf("%d entry(ies) posted after the cutoff were excluded", afterCutoff)})
	}
	if noDate > 0 {
		*warnings = append(*warnings, domain.Warning{Source: source, Message: fmt.Sprintf("%d entry(ies) have no posting date", noDate)})
	}
	if zeroAmounts > 0 {
		*warnings = append(*warnings, domain.Warning{Source: source, Message: fmt.Sprintf("%d entry(ies) have a zero amount", zeroAmounts)})
	}
	return out
}

func duplicateVoucherIDs(vouchers []domain.Voucher) int {
	seen := make(map[string]bool, len(vouchers))
	dup := 0
	for _, v := range vouchers {
		if v.ID == "" {
			continue
		}
		if seen[v.ID] {
			dup++
			continue
		}
		seen[v.ID] = true
	}
	return dup
}

// missingExtract reports an optional extract that was not supplied, or was
// supplied without a header (a 0-byte file). Either way the bridges that need
// it fail on their own and the run continues.
func missingExtract(dataset string, t *domain.Table) (domain.Warning, bool) {
	switch {
	case t == nil:
		return domain.Warning{Source: dataset, Message: "extract not supplied"}, true
	case len(t.Columns) == 0 && t.Len() == 0:
		return domain.Warning{Source: dataset, Message: "extract is empty"}, true
	}
	return domain.Warning{}, false
}
