package offers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

func TestPriceOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Filter(ctx, "tok", domain.OfferRegular,
		[]domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL", "DIOR"})

	lines, err := svc.PriceOrder(ctx, "tok", map[string]int{"CH-1": 2, "DI-1": 1})
	if err != nil {
		t.Fatalf("PriceOrder: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	// Lines follow working-set row order, not map iteration order.
	if lines[0].SKU != "CH-1" || lines[1].SKU != "DI-1" {
		t.Errorf("line order = %q, %q", lines[0].SKU, lines[1].SKU)
	}
	if !lines[0].UnitPrice.Equal(dec("20")) {
		t.Errorf("unit price = %s, want the row's offer price", lines[0].UnitPrice)
	}
	if !lines[0].LineTotal.Equal(dec("40")) {
		t.Errorf("line total = %s, want 40", lines[0].LineTotal)
	}
	if lines[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", lines[0].Quantity)
	}

	// Pricing alone must not consume quantities.
	rows, _ := svc.Rows(ctx, "tok")
	if rows[0].DisplayQty != 5 {
		t.Errorf("display qty after pricing = %d, want 5", rows[0].DisplayQty)
	}
}

func TestPriceOrderValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Filter(ctx, "tok", domain.OfferRegular,
		[]domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})

	if _, err := svc.PriceOrder(ctx, "tok", nil); !errors.Is(err, domain.ErrEmptyOrder) {
		t.Errorf("empty quantities: err = %v, want ErrEmptyOrder", err)
	}

	var fieldErrs domain.FieldErrors
	if _, err := svc.PriceOrder(ctx, "tok", map[string]int{"CH-1": 0}); !errors.As(err, &fieldErrs) {
		t.Errorf("zero quantity: err = %v, want FieldErrors", err)
	}

	if _, err := svc.PriceOrder(ctx, "tok", map[string]int{"NOPE": 1}); !errors.Is(err, domain.ErrRowNotFound) {
		t.Errorf("unknown sku: err = %v, want ErrRowNotFound", err)
	}

	if _, err := svc.PriceOrder(ctx, "tok", map[string]int{"CH-1": 6}); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("over-ask: err = %v, want ErrInsufficientStock", err)
	}

	if _, err := svc.PriceOrder(ctx, "other", map[string]int{"CH-1": 1}); !errors.Is(err, domain.ErrEmptyWorkingSet) {
		t.Errorf("no working set: err = %v, want ErrEmptyWorkingSet", err)
	}
}

func TestDeduct(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Filter(ctx, "tok", domain.OfferRegular,
		[]domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})

	if err := svc.Deduct(ctx, "tok", map[string]int{"CH-1": 2}); err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	rows, _ := svc.Rows(ctx, "tok")
	if rows[0].DisplayQty != 3 {
		t.Errorf("display qty = %d, want 3", rows[0].DisplayQty)
	}

	// Deductions floor at zero.
	if err := svc.Deduct(ctx, "tok", map[string]int{"CH-1": 10}); err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	rows, _ = svc.Rows(ctx, "tok")
	if rows[0].DisplayQty != 0 {
		t.Errorf("display qty = %d, want 0", rows[0].DisplayQty)
	}

	// A missing working set is a no-op.
	if err := svc.Deduct(ctx, "other", map[string]int{"CH-1": 1}); err != nil {
		t.Errorf("deduct with no working set: %v", err)
	}
}

func TestBuildOrderWorkbook(t *testing.T) {
	order := &domain.Order{
		OrderID: "ORDER-20260830120000",
		Lines: []domain.OrderLine{
			{SKU: "CH-1", UPC: "12345678", Description: "CHANEL-No 5", Quantity: 2, UnitPrice: dec("18.00"), LineTotal: dec("36.00")},
			{SKU: "DI-1", UPC: "NO UPC", Description: "DIOR-Lipstick", Quantity: 1, UnitPrice: dec("27.00"), LineTotal: dec("27.00")},
		},
		TotalQuantity: 3,
		TotalAmount:   dec("63.00"),
	}

	f, err := BuildOrderWorkbook(order)
	if err != nil {
		t.Fatalf("BuildOrderWorkbook: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	reopened, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reopened.Close()

	cell := func(ref string) string {
		v, err := reopened.GetCellValue(exportSheet, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", ref, err)
		}
		return v
	}

	if got := cell("A1"); got != "SKU" {
		t.Errorf("A1 = %q, want SKU", got)
	}
	if got := cell("F1"); got != "LINE TOTAL" {
		t.Errorf("F1 = %q, want LINE TOTAL", got)
	}

	// Numeric UPCs render through the 12-digit mask; placeholders pass
	// through as text.
	if got := cell("B2"); got != "000012345678" {
		t.Errorf("B2 = %q, want 000012345678", got)
	}
	if got := cell("B3"); got != "NO UPC" {
		t.Errorf("B3 = %q, want NO UPC", got)
	}
	if got := cell("D2"); got != "2" {
		t.Errorf("D2 = %q, want 2", got)
	}
	if got := cell("F2"); got != "36" {
		t.Errorf("F2 = %q, want 36", got)
	}

	// The sheet closes with the grand-total summary row.
	if got := cell("A4"); got != "-" {
		t.Errorf("A4 = %q, want -", got)
	}
	if got := cell("C4"); got != "Grand Total:" {
		t.Errorf("C4 = %q, want Grand Total:", got)
	}
	if got := cell("D4"); got != "3" {
		t.Errorf("D4 = %q, want 3", got)
	}
	if got := cell("F4"); got != "63" {
		t.Errorf("F4 = %q, want 63", got)
	}
}

func TestBuildOrderWorkbookEmptyOrder(t *testing.T) {
	if _, err := BuildOrderWorkbook(nil); !errors.Is(err, domain.ErrEmptyOrder) {
		t.Errorf("nil order: err = %v, want ErrEmptyOrder", err)
	}
	if _, err := BuildOrderWorkbook(&domain.Order{OrderID: "ORDER-X"}); !errors.Is(err, domain.ErrEmptyOrder) {
		t.Errorf("no lines: err = %v, want ErrEmptyOrder", err)
	}
}
