package offers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// ValidateSchedule rejects any brand rate outside [0,100]. The engine
// itself assumes pre-validated input.
func ValidateSchedule(schedule map[string]decimal.Decimal) error {
	errs := domain.FieldErrors{}
	for brand, rate := range schedule {
		if rate.IsNegative() || rate.GreaterThan(oneHundred) {
			errs[brand] = "discount must be between 0 and 100"
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplySchedule sets the discount and recomputes the offer price for
// every row whose brand has an entry in the schedule. Rows of brands
// absent from the schedule are left unchanged. The recompute always
// starts from the row's basis, so repeated application with the same
// schedule is idempotent.
func ApplySchedule(ws *WorkingSet, schedule map[string]decimal.Decimal) {
	for i, row := range ws.Rows {
		rate, ok := schedule[row.Brand]
		if !ok {
			continue
		}
		row.Discount = rate.Round(2)
		row.OfferPrice = OfferPrice(basisFor(ws.Variant, row), row.Discount)
		ws.Rows[i] = row
	}
}

// ApplyDiscount validates a brand schedule and applies it to the
// session's working set in one pass.
func (s *Service) ApplyDiscount(ctx context.Context, token string, schedule map[string]decimal.Decimal) ([]domain.OfferWorkingRow, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}

	ws, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	ApplySchedule(ws, schedule)
	if err := s.store.Put(ctx, ws); err != nil {
		return nil, fmt.Errorf("store working set: %w", err)
	}
	return ws.Rows, nil
}

// OfferPrice computes basis * (1 - rate/100) rounded to 2 decimals.
func OfferPrice(basis, rate decimal.Decimal) decimal.Decimal {
	return basis.Mul(oneHundred.Sub(rate)).Div(oneHundred).Round(2)
}

// basisFor picks the pricing basis: the salon price for SALON sets, raw
// cost otherwise.
func basisFor(variant domain.OfferType, row domain.OfferWorkingRow) decimal.Decimal {
	if variant == domain.OfferSalon {
		return row.Salon
	}
	return row.Cost
}

// defaultSalonPrice is half of cost, the derived salon tier.
func defaultSalonPrice(cost decimal.Decimal) decimal.Decimal {
	return cost.Div(decimal.NewFromInt(2)).Round(2)
}
