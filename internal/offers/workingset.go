package offers

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

// WorkingSet is one operator's in-progress offer table. It is owned
// exclusively by the session token that created it; the filter criteria
// are kept so Reset can re-seed from the current snapshot.
type WorkingSet struct {
	Token         string                   `json:"token"`
	Variant       domain.OfferType         `json:"variant"`
	Categories    []domain.SellerCategory  `json:"categories"`
	BrandPrefixes []string                 `json:"brand_prefixes"`
	Rows          []domain.OfferWorkingRow `json:"rows"`
}

// Store persists working sets keyed by session token. Get returns
// (nil, nil) when no working set exists for the token.
type Store interface {
	Get(ctx context.Context, token string) (*WorkingSet, error)
	Put(ctx context.Context, ws *WorkingSet) error
	Delete(ctx context.Context, token string) error
}

// SnapshotSource supplies the latest classification snapshot rows.
type SnapshotSource interface {
	LatestRows(ctx context.Context) ([]domain.ClassificationSnapshot, error)
}

// Service implements the working-set operations. All state lives in the
// store; the service itself is stateless and safe to share.
type Service struct {
	store     Store
	snapshots SnapshotSource
}

func NewService(store Store, snapshots SnapshotSource) *Service {
	return &Service{store: store, snapshots: snapshots}
}

// Filter replaces the session's working set with the snapshot rows that
// match the selection. A selection that matches nothing is valid and
// yields an empty set.
func (s *Service) Filter(
	ctx context.Context,
	token string,
	variant domain.OfferType,
	categories []domain.SellerCategory,
	brandPrefixes []string,
) ([]domain.OfferWorkingRow, error) {
	snapshots, err := s.snapshots.LatestRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	ws := &WorkingSet{
		Token:         token,
		Variant:       variant,
		Categories:    categories,
		BrandPrefixes: brandPrefixes,
		Rows:          seedRows(snapshots, variant, categories, brandPrefixes),
	}

	if err := s.store.Put(ctx, ws); err != nil {
		return nil, fmt.Errorf("store working set: %w", err)
	}
	return ws.Rows, nil
}

// Rows returns the session's current working set rows.
func (s *Service) Rows(ctx context.Context, token string) ([]domain.OfferWorkingRow, error) {
	ws, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return []domain.OfferWorkingRow{}, nil
	}
	return ws.Rows, nil
}

// Load returns the full working set, or ErrEmptyWorkingSet when the
// session has none.
func (s *Service) Load(ctx context.Context, token string) (*WorkingSet, error) {
	ws, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if ws == nil || len(ws.Rows) == 0 {
		return nil, domain.ErrEmptyWorkingSet
	}
	return ws, nil
}

// EditRowFields carries the optional per-row overrides of an edit. Nil
// fields are left untouched.
type EditRowFields struct {
	Description *string          `json:"description"`
	Cost        *decimal.Decimal `json:"cost"`
	Discount    *decimal.Decimal `json:"discount"`
	DisplayQty  *int             `json:"display_qty"`
	Salon       *decimal.Decimal `json:"salon"`
}

// Validate rejects out-of-range fields before they reach a row.
func (f EditRowFields) Validate() error {
	errs := domain.FieldErrors{}
	if f.Discount != nil && (f.Discount.IsNegative() || f.Discount.GreaterThan(decimal.NewFromInt(100))) {
		errs["discount"] = "must be between 0 and 100"
	}
	if f.Cost != nil && f.Cost.IsNegative() {
		errs["cost"] = "must not be negative"
	}
	if f.Salon != nil && f.Salon.IsNegative() {
		errs["salon"] = "must not be negative"
	}
	if f.DisplayQty != nil && *f.DisplayQty < 0 {
		errs["display_qty"] = "must not be negative"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EditRow applies field overrides to one row and recomputes its offer
// price. The SKU must already be in the working set.
func (s *Service) EditRow(ctx context.Context, token, sku string, fields EditRowFields) (domain.OfferWorkingRow, error) {
	if err := fields.Validate(); err != nil {
		return domain.OfferWorkingRow{}, err
	}

	ws, err := s.store.Get(ctx, token)
	if err != nil {
		return domain.OfferWorkingRow{}, err
	}
	if ws == nil {
		return domain.OfferWorkingRow{}, domain.ErrRowNotFound
	}

	idx := ws.indexOf(sku)
	if idx < 0 {
		return domain.OfferWorkingRow{}, domain.ErrRowNotFound
	}

	row := ws.Rows[idx]
	if fields.Description != nil {
		row.Description = *fields.Description
	}
	if fields.Cost != nil {
		row.Cost = *fields.Cost
	}
	if fields.DisplayQty != nil {
		row.DisplayQty = *fields.DisplayQty
	}
	if fields.Salon != nil {
		row.Salon = *fields.Salon
	}
	if fields.Discount != nil {
		row.Discount = fields.Discount.Round(2)
	}
	// Salon prices are seeded at filter time, so whatever value the row
	// carries now is intentional. An explicit zero stays zero.
	row.OfferPrice = OfferPrice(basisFor(ws.Variant, row), row.Discount)

	ws.Rows[idx] = row
	if err := s.store.Put(ctx, ws); err != nil {
		return domain.OfferWorkingRow{}, fmt.Errorf("store working set: %w", err)
	}
	return row, nil
}

// RemoveRow deletes the row if present. A missing SKU is a no-op.
func (s *Service) RemoveRow(ctx context.Context, token, sku string) error {
	ws, err := s.store.Get(ctx, token)
	if err != nil {
		return err
	}
	if ws == nil {
		return nil
	}

	idx := ws.indexOf(sku)
	if idx < 0 {
		return nil
	}

	ws.Rows = append(ws.Rows[:idx], ws.Rows[idx+1:]...)
	return s.store.Put(ctx, ws)
}

// Reset discards all edits and re-seeds the working set from the current
// snapshot using the session's stored filter criteria.
func (s *Service) Reset(ctx context.Context, token string) ([]domain.OfferWorkingRow, error) {
	ws, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, domain.ErrEmptyWorkingSet
	}
	return s.Filter(ctx, token, ws.Variant, ws.Categories, ws.BrandPrefixes)
}

// Discard drops the session's working set entirely.
func (s *Service) Discard(ctx context.Context, token string) error {
	return s.store.Delete(ctx, token)
}

func (ws *WorkingSet) indexOf(sku string) int {
	for i, row := range ws.Rows {
		if row.SKU == sku {
			return i
		}
	}
	return -1
}

func seedRows(
	snapshots []domain.ClassificationSnapshot,
	variant domain.OfferType,
	categories []domain.SellerCategory,
	brandPrefixes []string,
) []domain.OfferWorkingRow {
	wanted := make(map[domain.SellerCategory]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	rows := make([]domain.OfferWorkingRow, 0)
	for _, snap := range snapshots {
		if snap.Available <= 0 {
			continue
		}
		if _, ok := wanted[snap.Category]; !ok {
			continue
		}
		if !matchesAnyPrefix(snap.Brand, brandPrefixes) {
			continue
		}
		rows = append(rows, seedRow(snap, variant))
	}
	return rows
}

func seedRow(snap domain.ClassificationSnapshot, variant domain.OfferType) domain.OfferWorkingRow {
	row := domain.OfferWorkingRow{
		SKU:         snap.SKU,
		UPC:         snap.UPC,
		Brand:       snap.Brand,
		Description: snap.Description,
		Cost:        snap.Cost,
		DisplayQty:  snap.Available,
	}
	if variant == domain.OfferSalon {
		row.Salon = defaultSalonPrice(snap.Cost)
	}
	row.OfferPrice = basisFor(variant, row).Round(2)
	return row
}

func matchesAnyPrefix(brand string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(brand, p) {
			return true
		}
	}
	return false
}
