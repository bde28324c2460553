package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SellerCategory is the velocity classification assigned to a SKU.
type SellerCategory string

const (
	DeadSeller    SellerCategory = "Dead Seller"
	SlowSeller    SellerCategory = "Slow Seller"
	AverageSeller SellerCategory = "Average Seller"
	BestSeller    SellerCategory = "Best Seller"
)

// UnknownBrand is the sentinel used when no brand can be resolved.
const UnknownBrand = "UNKNOWN"

var (
	slowCeiling     = decimal.NewFromInt(20)
	bestFloor       = decimal.NewFromInt(80)
	hundred         = decimal.NewFromInt(100)
	categoryByLabel = map[string]SellerCategory{
		"dead seller":    DeadSeller,
		"slow seller":    SlowSeller,
		"average seller": AverageSeller,
		"best seller":    BestSeller,
	}
)

// CategoryForPercentage assigns the seller category for a sell-through
// percentage. The bands use strict comparisons, so exactly 20 and exactly
// 80 fall through to the Dead Seller default.
func CategoryForPercentage(pct decimal.Decimal) SellerCategory {
	category := DeadSeller
	if pct.GreaterThan(slowCeiling) && pct.LessThan(bestFloor) {
		category = AverageSeller
	}
	if pct.GreaterThan(bestFloor) {
		category = BestSeller
	}
	if pct.LessThan(slowCeiling) {
		category = SlowSeller
	}
	return category
}

// ParseSellerCategory returns the category for a label (case-insensitive).
func ParseSellerCategory(label string) (SellerCategory, bool) {
	c, ok := categoryByLabel[strings.ToLower(strings.TrimSpace(label))]
	return c, ok
}

// SellThroughPercentage computes qtyOut / reference * 100. A zero
// reference resolves to 0 rather than an error.
func SellThroughPercentage(qtyOut, reference int) decimal.Decimal {
	if reference == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(qtyOut)).
		Div(decimal.NewFromInt(int64(reference))).
		Mul(hundred)
}

// SafeDecimal converts a string to a decimal, returning 0 when the value
// does not parse. Thousands separators and surrounding space are tolerated.
func SafeDecimal(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ResolveBrand applies the brand fallback chain: the brand on file, then
// the description's text before the first hyphen, then UNKNOWN. The
// hyphen split is a fixed data convention that downstream discount
// matching depends on.
func ResolveBrand(brandOnFile, description string) string {
	if b := strings.TrimSpace(brandOnFile); b != "" {
		return b
	}
	token, _, _ := strings.Cut(description, "-")
	if b := strings.TrimSpace(token); b != "" {
		return b
	}
	return UnknownBrand
}
