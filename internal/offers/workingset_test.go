package offers

import (
	"context"
	"errors"
	"testing"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

type fakeStore struct {
	sets map[string]*WorkingSet
}

func newFakeStore() *fakeStore {
	return &fakeStore{sets: make(map[string]*WorkingSet)}
}

func (s *fakeStore) Get(_ context.Context, token string) (*WorkingSet, error) {
	ws, ok := s.sets[token]
	if !ok {
		return nil, nil
	}
	copied := *ws
	copied.Rows = append([]domain.OfferWorkingRow(nil), ws.Rows...)
	return &copied, nil
}

func (s *fakeStore) Put(_ context.Context, ws *WorkingSet) error {
	copied := *ws
	copied.Rows = append([]domain.OfferWorkingRow(nil), ws.Rows...)
	s.sets[ws.Token] = &copied
	return nil
}

func (s *fakeStore) Delete(_ context.Context, token string) error {
	delete(s.sets, token)
	return nil
}

type fakeSnapshots struct {
	rows []domain.ClassificationSnapshot
}

func (f *fakeSnapshots) LatestRows(_ context.Context) ([]domain.ClassificationSnapshot, error) {
	return f.rows, nil
}

func snapshotFixture() []domain.ClassificationSnapshot {
	return []domain.ClassificationSnapshot{
		{SKU: "CH-1", Brand: "CHANEL", Category: domain.SlowSeller, Available: 5, Cost: dec("20.00"), Description: "CHANEL-No 5"},
		{SKU: "CH-2", Brand: "CHANEL", Category: domain.DeadSeller, Available: 0, Cost: dec("15.00")},
		{SKU: "DI-1", Brand: "DIOR", Category: domain.SlowSeller, Available: 2, Cost: dec("30.00")},
		{SKU: "OP-1", Brand: "OPI", Category: domain.BestSeller, Available: 9, Cost: dec("8.00")},
	}
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, &fakeSnapshots{rows: snapshotFixture()}), store
}

func TestFilterSeedsMatchingRows(t *testing.T) {
	svc, _ := newTestService()

	rows, err := svc.Filter(context.Background(), "tok",
		domain.OfferRegular,
		[]domain.SellerCategory{domain.SlowSeller, domain.DeadSeller},
		[]string{"CHANEL"},
	)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}

	// CH-2 is Dead but has zero available, DI-1 is the wrong brand.
	if len(rows) != 1 || rows[0].SKU != "CH-1" {
		t.Fatalf("rows = %+v, want only CH-1", rows)
	}
	if !rows[0].OfferPrice.Equal(dec("20")) {
		t.Errorf("seeded offer price = %s, want cost", rows[0].OfferPrice)
	}
	if rows[0].DisplayQty != 5 {
		t.Errorf("display qty = %d, want 5", rows[0].DisplayQty)
	}
}

func TestFilterEmptySelections(t *testing.T) {
	svc, _ := newTestService()

	rows, err := svc.Filter(context.Background(), "tok", domain.OfferRegular, nil, []string{"CHANEL"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("no categories should match nothing, got %d rows", len(rows))
	}

	rows, err = svc.Filter(context.Background(), "tok", domain.OfferRegular, []domain.SellerCategory{domain.SlowSeller}, nil)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("no brand prefixes should match nothing, got %d rows", len(rows))
	}
}

func TestFilterSalonSeedsSalonPrice(t *testing.T) {
	svc, _ := newTestService()

	rows, err := svc.Filter(context.Background(), "tok", domain.OfferSalon,
		[]domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !rows[0].Salon.Equal(dec("10")) {
		t.Errorf("salon price = %s, want half of cost", rows[0].Salon)
	}
	if !rows[0].OfferPrice.Equal(dec("10")) {
		t.Errorf("salon offer price = %s, want salon basis", rows[0].OfferPrice)
	}
}

func TestEditRow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Filter(ctx, "tok", domain.OfferRegular,
		[]domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"}); err != nil {
		t.Fatalf("Filter: %v", err)
	}

	discount := dec("10")
	row, err := svc.EditRow(ctx, "tok", "CH-1", EditRowFields{Discount: &discount})
	if err != nil {
		t.Fatalf("EditRow: %v", err)
	}
	if !row.OfferPrice.Equal(dec("18")) {
		t.Errorf("offer price after edit = %s, want 18", row.OfferPrice)
	}

	// The edit must persist.
	rows, _ := svc.Rows(ctx, "tok")
	if !rows[0].OfferPrice.Equal(dec("18")) {
		t.Errorf("stored offer price = %s, want 18", rows[0].OfferPrice)
	}
}

func TestEditRowUnknownSKU(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.EditRow(ctx, "tok", "CH-1", EditRowFields{}); !errors.Is(err, domain.ErrRowNotFound) {
		t.Errorf("edit with no working set: err = %v, want ErrRowNotFound", err)
	}

	svc.Filter(ctx, "tok", domain.OfferRegular, []domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})
	if _, err := svc.EditRow(ctx, "tok", "NOPE", EditRowFields{}); !errors.Is(err, domain.ErrRowNotFound) {
		t.Errorf("edit unknown sku: err = %v, want ErrRowNotFound", err)
	}
}

func TestEditRowValidation(t *testing.T) {
	svc, _ := newTestService()

	bad := dec("101")
	_, err := svc.EditRow(context.Background(), "tok", "CH-1", EditRowFields{Discount: &bad})
	var fieldErrs domain.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fieldErrs["discount"]; !ok {
		t.Errorf("expected discount field error, got %v", fieldErrs)
	}
}

func TestEditRowExplicitZeroSalonSurvives(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Filter(ctx, "tok", domain.OfferSalon, []domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})

	salon := dec("0")
	row, err := svc.EditRow(ctx, "tok", "CH-1", EditRowFields{Salon: &salon})
	if err != nil {
		t.Fatalf("EditRow: %v", err)
	}
	if !row.Salon.IsZero() {
		t.Errorf("salon = %s, want the explicit 0 to stick", row.Salon)
	}
	if !row.OfferPrice.IsZero() {
		t.Errorf("offer price = %s, want 0 from the zero basis", row.OfferPrice)
	}

	// A later unrelated edit must not resurrect the cost/2 default.
	discount := dec("5")
	row, err = svc.EditRow(ctx, "tok", "CH-1", EditRowFields{Discount: &discount})
	if err != nil {
		t.Fatalf("EditRow: %v", err)
	}
	if !row.Salon.IsZero() {
		t.Errorf("salon after second edit = %s, want 0", row.Salon)
	}
}

func TestRemoveRow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Filter(ctx, "tok", domain.OfferRegular, []domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL", "DIOR"})

	if err := svc.RemoveRow(ctx, "tok", "CH-1"); err != nil {
		t.Fatalf("RemoveRow: %v", err)
	}
	rows, _ := svc.Rows(ctx, "tok")
	if len(rows) != 1 || rows[0].SKU != "DI-1" {
		t.Errorf("rows after remove = %+v", rows)
	}

	// Removing an absent SKU is a no-op.
	if err := svc.RemoveRow(ctx, "tok", "GONE"); err != nil {
		t.Errorf("remove absent sku: %v", err)
	}
	if err := svc.RemoveRow(ctx, "other", "CH-1"); err != nil {
		t.Errorf("remove with no working set: %v", err)
	}
}

func TestResetRestoresSnapshotRows(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Filter(ctx, "tok", domain.OfferRegular, []domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})

	discount := dec("50")
	svc.EditRow(ctx, "tok", "CH-1", EditRowFields{Discount: &discount})
	svc.RemoveRow(ctx, "tok", "CH-1")

	rows, err := svc.Reset(ctx, "tok")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(rows) != 1 || rows[0].SKU != "CH-1" {
		t.Fatalf("reset rows = %+v", rows)
	}
	if !rows[0].Discount.IsZero() {
		t.Errorf("reset kept a discount: %s", rows[0].Discount)
	}

	if _, err := svc.Reset(ctx, "unknown"); !errors.Is(err, domain.ErrEmptyWorkingSet) {
		t.Errorf("reset with no working set: err = %v, want ErrEmptyWorkingSet", err)
	}
}

func TestLoadAndDiscard(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Load(ctx, "tok"); !errors.Is(err, domain.ErrEmptyWorkingSet) {
		t.Errorf("load empty: err = %v, want ErrEmptyWorkingSet", err)
	}

	svc.Filter(ctx, "tok", domain.OfferRegular, []domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})
	ws, err := svc.Load(ctx, "tok")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ws.Variant != domain.OfferRegular || len(ws.Rows) != 1 {
		t.Errorf("loaded working set = %+v", ws)
	}

	if err := svc.Discard(ctx, "tok"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := svc.Load(ctx, "tok"); !errors.Is(err, domain.ErrEmptyWorkingSet) {
		t.Errorf("load after discard: err = %v, want ErrEmptyWorkingSet", err)
	}
}
