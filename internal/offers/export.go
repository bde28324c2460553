package offers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

const exportSheet = "Sheet1"

// upcDisplayMask renders UPCs as 12-digit zero-padded numbers. This is
// presentation only; the stored value is unchanged.
const upcDisplayMask = "000000000000"

// exportHeaders are the customer-facing columns, already uppercased.
// The working display quantity is published as AVAILABLE, and for SALON
// sheets the salon price is published as COST. Classification metadata
// and sell-through fields never reach the sheet.
var exportHeaders = []string{"SKU", "UPC", "BRAND", "DESCRIPTION", "AVAILABLE", "COST", "DISCOUNT", "OFFER PRICE"}

// BuildWorkbook renders a finalized working set into a spreadsheet and
// returns the workbook plus its artifact file name.
func BuildWorkbook(ws *WorkingSet, now time.Time) (*excelize.File, string, error) {
	if ws == nil || len(ws.Rows) == 0 {
		return nil, "", domain.ErrEmptyWorkingSet
	}

	brands := uniqueBrands(ws.Rows)
	if len(brands) == 0 {
		return nil, "", domain.ErrMissingBrand
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}

	widths := make([]int, len(exportHeaders))
	for col, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, "", fmt.Errorf("write header: %w", err)
		}
		widths[col] = len(h)
	}

	mask := upcDisplayMask
	upcStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &mask})
	if err != nil {
		return nil, "", fmt.Errorf("create UPC style: %w", err)
	}

	for i, row := range ws.Rows {
		cost := row.Cost
		if ws.Variant == domain.OfferSalon {
			cost = row.Salon
		}

		values := []interface{}{
			row.SKU,
			upcCellValue(row.UPC),
			row.Brand,
			row.Description,
			row.DisplayQty,
			cost.InexactFloat64(),
			row.Discount.InexactFloat64(),
			row.OfferPrice.InexactFloat64(),
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("write row %s: %w", row.SKU, err)
			}
			if width := renderedWidth(v); width > widths[col] {
				widths[col] = width
			}
		}

		upcCell, _ := excelize.CoordinatesToCellName(2, i+2)
		if err := f.SetCellStyle(exportSheet, upcCell, upcCell, upcStyle); err != nil {
			return nil, "", fmt.Errorf("style UPC cell: %w", err)
		}
	}

	for col := range exportHeaders {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(exportSheet, name, name, float64(widths[col]+2)); err != nil {
			return nil, "", fmt.Errorf("size column %s: %w", name, err)
		}
	}

	return f, artifactFileName(brands, now), nil
}

// artifactFileName builds Krisco_<sorted-unique-brands>_<timestamp>.xlsx.
func artifactFileName(brands []string, now time.Time) string {
	return fmt.Sprintf("Krisco_%s_%s.xlsx", strings.Join(brands, "_"), now.Format("20060102150405"))
}

func uniqueBrands(rows []domain.OfferWorkingRow) []string {
	seen := make(map[string]struct{}, len(rows))
	brands := make([]string, 0, len(rows))
	for _, row := range rows {
		brand := strings.TrimSpace(row.Brand)
		if brand == "" {
			continue
		}
		if _, ok := seen[brand]; ok {
			continue
		}
		seen[brand] = struct{}{}
		brands = append(brands, brand)
	}
	sort.Strings(brands)
	return brands
}

// upcCellValue keeps numeric UPCs numeric so the display mask applies;
// non-numeric codes pass through as text.
func upcCellValue(upc string) interface{} {
	if n, err := strconv.ParseUint(strings.TrimSpace(upc), 10, 64); err == nil {
		return n
	}
	return upc
}

func renderedWidth(v interface{}) int {
	return len(fmt.Sprintf("%v", v))
}
