package slowmovers

import "github.com/manoj99-eng/krisco-backend/internal/domain"

// Aggregate reduces movement records into per-SKU year-to-date totals.
// The import pipeline already delivers one row per SKU; duplicate SKUs
// are summed anyway so a dirty import cannot double-key the map.
func Aggregate(records []domain.MovementRecord) map[string]MovementTotals {
	totals := make(map[string]MovementTotals, len(records))
	for _, rec := range records {
		t := totals[rec.SKU]
		t.QtyIn += rec.QtyIn
		t.QtyOut += rec.QtyOut
		t.Balance += rec.Balance
		totals[rec.SKU] = t
	}
	return totals
}
