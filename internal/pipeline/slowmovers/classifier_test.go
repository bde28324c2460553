package slowmovers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

func stock(sku, description string, available int64) domain.StockRecord {
	rec := domain.StockRecord{
		SKU:         sku,
		UPC:         "123456789012",
		Description: description,
		OnHand:      int(available),
		Cost:        decimal.NewFromInt(10),
	}
	rec.Available.Int64 = available
	rec.Available.Valid = true
	return rec
}

func TestAggregate(t *testing.T) {
	records := []domain.MovementRecord{
		{SKU: "A", QtyIn: 10, QtyOut: 5, Balance: 5},
		{SKU: "B", QtyIn: 1, QtyOut: 1, Balance: 0},
		{SKU: "A", QtyIn: 2, QtyOut: 3, Balance: -1},
	}

	totals := Aggregate(records)
	if len(totals) != 2 {
		t.Fatalf("expected 2 SKUs, got %d", len(totals))
	}
	if got := totals["A"]; got != (MovementTotals{QtyIn: 12, QtyOut: 8, Balance: 4}) {
		t.Errorf("totals[A] = %+v", got)
	}
	if got := totals["B"]; got != (MovementTotals{QtyIn: 1, QtyOut: 1, Balance: 0}) {
		t.Errorf("totals[B] = %+v", got)
	}
}

func TestClassifyComputesSnapshotFields(t *testing.T) {
	reportDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	classifier := NewClassifier(Config{})

	movements := map[string]MovementTotals{
		// reference = 40 + 60 = 100, percentage = 85 -> Best Seller
		"SKU-1": {QtyIn: 40, QtyOut: 85, Balance: 60},
	}
	brands := map[string]string{"SKU-1": "CHANEL"}

	result := classifier.Classify(reportDate, []domain.StockRecord{stock("SKU-1", "CHANEL-No 5", 12)}, movements, brands)

	if result.Classified != 1 || result.Failed != 0 || result.Excluded != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	snap := result.Snapshots[0]
	if snap.BeginningBalance != 60-40+85 {
		t.Errorf("beginning balance = %d, want %d", snap.BeginningBalance, 60-40+85)
	}
	if snap.Reference != 100 {
		t.Errorf("reference = %d, want 100", snap.Reference)
	}
	if !snap.Percentage.Equal(decimal.NewFromInt(85)) {
		t.Errorf("percentage = %s, want 85", snap.Percentage)
	}
	if snap.Category != domain.BestSeller {
		t.Errorf("category = %q, want %q", snap.Category, domain.BestSeller)
	}
	if snap.Brand != "CHANEL" {
		t.Errorf("brand = %q", snap.Brand)
	}
	if snap.Available != 12 {
		t.Errorf("available = %d", snap.Available)
	}
}

func TestClassifyZeroReferenceIsDeadSeller(t *testing.T) {
	tests := []struct {
		name      string
		movements map[string]MovementTotals
	}{
		{"no movement row", nil},
		{"all-zero totals", map[string]MovementTotals{"SKU-2": {QtyIn: 0, QtyOut: 0, Balance: 0}}},
	}

	classifier := NewClassifier(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(time.Now(), []domain.StockRecord{stock("SKU-2", "DIOR-Lipstick", 3)}, tt.movements, nil)

			if result.Classified != 1 {
				t.Fatalf("unexpected counts: %+v", result)
			}
			snap := result.Snapshots[0]
			if !snap.Percentage.IsZero() {
				t.Errorf("percentage = %s, want 0", snap.Percentage)
			}
			if snap.Category != domain.DeadSeller {
				t.Errorf("category = %q, want %q", snap.Category, domain.DeadSeller)
			}
			if snap.Brand != "DIOR" {
				t.Errorf("brand fallback = %q, want DIOR", snap.Brand)
			}
		})
	}
}

func TestClassifyZeroSalesWithStockIsSlowSeller(t *testing.T) {
	classifier := NewClassifier(Config{})
	movements := map[string]MovementTotals{"SKU-3": {QtyIn: 10, QtyOut: 0, Balance: 10}}

	result := classifier.Classify(time.Now(), []domain.StockRecord{stock("SKU-3", "OPI-Polish", 10)}, movements, nil)

	if result.Classified != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	snap := result.Snapshots[0]
	if snap.Category != domain.SlowSeller {
		t.Errorf("category = %q, want %q", snap.Category, domain.SlowSeller)
	}
}

func TestClassifyExcludesSuffixes(t *testing.T) {
	tests := []struct {
		sku      string
		excluded bool
	}{
		{"ABC-TESTER", true},
		{"abc-tester", true},
		{"ABC-SAMPLE", true},
		{"ABC-NOBOX", true},
		{"ABC-NO BOX", true},
		{"ABC-EU", true},
		{"ABC-UK", true},
		{"ABC-EUX", false},
		{"ABC", false},
	}

	classifier := NewClassifier(Config{})
	for _, tt := range tests {
		result := classifier.Classify(time.Now(), []domain.StockRecord{stock(tt.sku, "X-Y", 1)}, nil, nil)
		if got := result.Excluded == 1; got != tt.excluded {
			t.Errorf("sku %q: excluded = %v, want %v", tt.sku, got, tt.excluded)
		}
	}
}

func TestClassifyIsolatesRowFailures(t *testing.T) {
	classifier := NewClassifier(Config{})
	stocks := []domain.StockRecord{
		stock("GOOD-1", "OPI-Polish", 5),
		stock("  ", "no sku here", 5),
		stock("GOOD-2", "OPI-Topcoat", 5),
	}

	result := classifier.Classify(time.Now(), stocks, nil, nil)

	if result.Classified != 2 {
		t.Errorf("classified = %d, want 2", result.Classified)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if len(result.Outcomes) != 3 {
		t.Errorf("outcomes = %d, want 3", len(result.Outcomes))
	}
	for _, outcome := range result.Outcomes {
		if outcome.Status == RowFailed && outcome.Reason == "" {
			t.Error("failed outcome should carry a reason")
		}
	}
}

func TestClassifyCustomSuffixList(t *testing.T) {
	classifier := NewClassifier(Config{ExcludedSuffixes: []string{"-GIFT"}})

	result := classifier.Classify(time.Now(), []domain.StockRecord{
		stock("ABC-GIFT", "X-Y", 1),
		stock("ABC-TESTER", "X-Y", 1),
	}, nil, nil)

	if result.Excluded != 1 || result.Classified != 1 {
		t.Errorf("custom suffix list not honored: %+v", result)
	}
}
