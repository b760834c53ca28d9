package categorize

import (
	"strings"

	"sox-reconciler/internal/domain"
)

// VoucherTypeLookup resolves an entry's voucher type in two tiers: the
// voucher number against the issuance baseline, then, only when that is blank
// or unmatched, the document number against usage transaction numbers.
// Some postings carry a transaction number but no voucher number.
type VoucherTypeLookup struct {
	byVoucherID     map[string]string
	byTransactionNo map[string]domain.UsageRecord
}

// NewVoucherTypeLookup indexes the extracts. For duplicate keys the first row wins.
func NewVoucherTypeLookup(vouchers []domain.Voucher, usage []domain.UsageRecord) *VoucherTypeLookup {
	l := &VoucherTypeLookup{
		byVoucherID:     make(map[string]string, len(vouchers)),
		byTransactionNo: make(map[string]domain.UsageRecord, len(usage)),
	}
	for _, v := range vouchers {
		key := normKey(v.ID)
		if key == "" {
			continue
		}
		if _, ok := l.byVoucherID[key]; !ok {
			l.byVoucherID[key] = v.BusinessUse
		}
	}
	for _, u := range usage {
		key := normKey(u.TransactionNo)
		if key == "" {
			continue
		}
		if _, ok := l.byTransactionNo[key]; !ok {
			l.byTransactionNo[key] = u
		}
	}
	return l
}

// Resolve returns the voucher type for a voucher/document number pair.
func (l *VoucherTypeLookup) Resolve(voucherNo, documentNo string) (string, domain.VoucherTypeSource) {
	if key := normKey(voucherNo); key != "" {
		if use, ok := l.byVoucherID[key]; ok {
			return use, domain.VoucherTypeSourceVoucherNo
		}
	}
	if key := normKey(documentNo); key != "" {
		if u, ok := l.byTransactionNo[key]; ok {
			if use, ok := l.byVoucherID[normKey(u.VoucherID)]; ok {
				return use, domain.VoucherTypeSourceTransactionNo
			}
			if u.BusinessUse != "" {
				return u.BusinessUse, domain.VoucherTypeSourceTransactionNo
			}
		}
	}
	return "", domain.VoucherTypeSourceNone
}

// Apply is the voucher type enrichment stage. It runs on every row.
func (l *VoucherTypeLookup) Apply(e domain.CategorizedEntry) domain.CategorizedEntry {
	e.VoucherType, e.VoucherTypeSource = l.Resolve(e.VoucherNo, e.DocumentNo)
	return e
}

// Keys are compared exactly after trimming; voucher codes are case-sensitive.
func normKey(s string) string {
	return strings.TrimSpace(s)
}
