package offers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

// orderHeaders are the columns of the order confirmation sheet.
var orderHeaders = []string{"SKU", "UPC", "DESCRIPTION", "QUANTITY", "UNIT PRICE", "LINE TOTAL"}

// PriceOrder prices the requested quantities against the session's
// working set without mutating it. Lines come back in working-set row
// order with the row's current offer price as the unit price.
func (s *Service) PriceOrder(ctx context.Context, token string, quantities map[string]int) ([]domain.OrderLine, error) {
	if len(quantities) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for sku, qty := range quantities {
		if qty <= 0 {
			return nil, domain.FieldErrors{sku: "quantity must be positive"}
		}
	}

	ws, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	inSet := make(map[string]struct{}, len(ws.Rows))
	for _, row := range ws.Rows {
		inSet[row.SKU] = struct{}{}
	}
	for sku := range quantities {
		if _, ok := inSet[sku]; !ok {
			return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrRowNotFound)
		}
	}

	lines := make([]domain.OrderLine, 0, len(quantities))
	for _, row := range ws.Rows {
		qty, ok := quantities[row.SKU]
		if !ok {
			continue
		}
		if qty > row.DisplayQty {
			return nil, fmt.Errorf("sku %s has %d available: %w", row.SKU, row.DisplayQty, domain.ErrInsufficientStock)
		}
		lines = append(lines, domain.OrderLine{
			SKU:         row.SKU,
			UPC:         row.UPC,
			Description: row.Description,
			Quantity:    qty,
			UnitPrice:   row.OfferPrice,
			LineTotal:   row.OfferPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2),
		})
	}
	return lines, nil
}

// Deduct subtracts committed order quantities from the working-set rows
// so the operator's view tracks what is left to sell. A missing working
// set is a no-op; quantities never go below zero.
func (s *Service) Deduct(ctx context.Context, token string, quantities map[string]int) error {
	ws, err := s.store.Get(ctx, token)
	if err != nil {
		return err
	}
	if ws == nil {
		return nil
	}

	for i, row := range ws.Rows {
		qty, ok := quantities[row.SKU]
		if !ok {
			continue
		}
		row.DisplayQty -= qty
		if row.DisplayQty < 0 {
			row.DisplayQty = 0
		}
		ws.Rows[i] = row
	}
	return s.store.Put(ctx, ws)
}

// BuildOrderWorkbook renders a submitted order's lines followed by a
// grand-total summary row.
func BuildOrderWorkbook(order *domain.Order) (*excelize.File, error) {
	if order == nil || len(order.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	widths := make([]int, len(orderHeaders))
	for col, h := range orderHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		widths[col] = len(h)
	}

	mask := upcDisplayMask
	upcStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &mask})
	if err != nil {
		return nil, fmt.Errorf("create UPC style: %w", err)
	}

	writeRow := func(rowNum int, values []interface{}) error {
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", rowNum, err)
			}
			if width := renderedWidth(v); width > widths[col] {
				widths[col] = width
			}
		}
		return nil
	}

	for i, line := range order.Lines {
		values := []interface{}{
			line.SKU,
			upcCellValue(line.UPC),
			line.Description,
			line.Quantity,
			line.UnitPrice.InexactFloat64(),
			line.LineTotal.InexactFloat64(),
		}
		if err := writeRow(i+2, values); err != nil {
			return nil, err
		}

		upcCell, _ := excelize.CoordinatesToCellName(2, i+2)
		if err := f.SetCellStyle(exportSheet, upcCell, upcCell, upcStyle); err != nil {
			return nil, fmt.Errorf("style UPC cell: %w", err)
		}
	}

	summary := []interface{}{
		"-",
		"-",
		"Grand Total:",
		order.TotalQuantity,
		"",
		order.TotalAmount.InexactFloat64(),
	}
	if err := writeRow(len(order.Lines)+2, summary); err != nil {
		return nil, err
	}

	for col := range orderHeaders {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(exportSheet, name, name, float64(widths[col]+2)); err != nil {
			return nil, fmt.Errorf("size column %s: %w", name, err)
		}
	}

	return f, nil
}
