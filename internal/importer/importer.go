package importer

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

// Bulk report files arrive as tab-delimited TXT exports with a fixed
// header line. Rows with the wrong column count are skipped, not fatal;
// the file as a whole fails only on a header mismatch or a read error.

var stockHeader = []string{"SKU", "UPC", "Item Classification", "Description", "OnHand", "Allocated", "Available", "Cost"}

var movementHeader = []string{"SKU", "Item Description", "Qty in", "Qty out", "Balance"}

// PlaceholderUPC fills rows whose UPC column is blank.
const PlaceholderUPC = "NO UPC"

// Result summarizes one file import.
type Result struct {
	Parsed  int `json:"parsed"`
	Skipped int `json:"skipped"`
}

// ReadStockFile parses a tab-delimited stock report into records ready
// for a wholesale table replace.
func ReadStockFile(r io.Reader) ([]domain.StockRecord, Result, error) {
	reader := newTabReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, Result{}, fmt.Errorf("error reading stock header: %w", err)
	}
	if err := checkHeader(header, stockHeader); err != nil {
		return nil, Result{}, err
	}

	var records []domain.StockRecord
	var res Result
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, Result{}, fmt.Errorf("error reading stock row %d: %w", line, err)
		}
		if len(row) != len(stockHeader) {
			res.Skipped++
			log.Warn().Int("line", line).Int("columns", len(row)).Msg("skipping malformed stock row")
			continue
		}

		sku := strings.TrimSpace(row[0])
		if sku == "" {
			res.Skipped++
			log.Warn().Int("line", line).Msg("skipping stock row without SKU")
			continue
		}

		upc := strings.TrimSpace(row[1])
		if upc == "" {
			upc = PlaceholderUPC
		}

		records = append(records, domain.StockRecord{
			SKU:                sku,
			UPC:                upc,
			ItemClassification: nullableString(row[2]),
			Description:        strings.TrimSpace(row[3]),
			OnHand:             parseQty(row[4]),
			Allocated:          nullableQty(row[5]),
			Available:          nullableQty(row[6]),
			Cost:               domain.SafeDecimal(row[7]),
		})
		res.Parsed++
	}

	return records, res, nil
}

// ReadMovementFile parses a tab-delimited movement ("In & Out") report.
func ReadMovementFile(r io.Reader) ([]domain.MovementRecord, Result, error) {
	reader := newTabReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, Result{}, fmt.Errorf("error reading movement header: %w", err)
	}
	if err := checkHeader(header, movementHeader); err != nil {
		return nil, Result{}, err
	}

	var records []domain.MovementRecord
	var res Result
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, Result{}, fmt.Errorf("error reading movement row %d: %w", line, err)
		}
		if len(row) != len(movementHeader) {
			res.Skipped++
			log.Warn().Int("line", line).Int("columns", len(row)).Msg("skipping malformed movement row")
			continue
		}

		sku := strings.TrimSpace(row[0])
		if sku == "" {
			res.Skipped++
			log.Warn().Int("line", line).Msg("skipping movement row without SKU")
			continue
		}

		records = append(records, domain.MovementRecord{
			SKU:             sku,
			ItemDescription: strings.TrimSpace(row[1]),
			QtyIn:           parseQty(row[2]),
			QtyOut:          parseQty(row[3]),
			Balance:         parseQty(row[4]),
		})
		res.Parsed++
	}

	return records, res, nil
}

func newTabReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("unexpected header: got %d columns, want %d", len(got), len(want))
	}
	for i, col := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), col) {
			return fmt.Errorf("unexpected header column %d: got %q, want %q", i+1, strings.TrimSpace(got[i]), col)
		}
	}
	return nil
}

// parseQty reads an integer quantity column. Blank means 0; exports
// sometimes render whole quantities as "12.0".
func parseQty(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, _ := strconv.ParseFloat(s, 64)
	return int(f)
}

func nullableQty(s string) sql.NullInt64 {
	if strings.TrimSpace(s) == "" {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(parseQty(s)), Valid: true}
}

func nullableString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
