// Package reconcile derives the pending order queue from a ledger snapshot.
// It is pure with respect to its inputs and safe to call on every snapshot,
// however often they arrive or repeat.
package reconcile

import (
	"sort"

	"github.com/solanabar/dispenser/internal/ledger"
)

// Pending returns the undelivered receipts for the target product, oldest
// first. Receipts whose ids are in acked are excluded: those acknowledgments
// are in flight and a stale snapshot replayed by the feed must not resurrect
// them. The result is never nil.
func Pending(snap *ledger.Receipts, targetProduct string, acked *AckSet) []ledger.Receipt {
	pending := []ledger.Receipt{}
	if snap == nil {
		return pending
	}
	for _, r := range snap.Receipts {
		if r.WasDelivered || r.ProductName != targetProduct {
			continue
		}
		if acked != nil && acked.Has(r.ReceiptID) {
			continue
		}
		pending = append(pending, r)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ReceiptID < pending[j].ReceiptID
	})
	return pending
}
