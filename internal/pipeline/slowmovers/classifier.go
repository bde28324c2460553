package slowmovers

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

// Classifier turns stock and movement data into classification snapshots.
type Classifier struct {
	excludedSuffixes []string
}

// NewClassifier creates a classifier. An empty suffix list falls back to
// the default denylist.
func NewClassifier(cfg Config) *Classifier {
	suffixes := cfg.ExcludedSuffixes
	if len(suffixes) == 0 {
		suffixes = DefaultExcludedSuffixes
	}
	return &Classifier{excludedSuffixes: suffixes}
}

// Classify produces one snapshot per eligible SKU for the report date.
// brandBySKU is the item-master brand reference. Per-row failures are
// logged and collected; they never abort the batch.
func (c *Classifier) Classify(
	reportDate time.Time,
	stocks []domain.StockRecord,
	movements map[string]MovementTotals,
	brandBySKU map[string]string,
) RunResult {
	result := RunResult{
		ReportDate: reportDate,
		Snapshots:  make([]domain.ClassificationSnapshot, 0, len(stocks)),
		Outcomes:   make([]RowOutcome, 0, len(stocks)),
	}

	for _, stock := range stocks {
		if c.isExcluded(stock.SKU) {
			result.Excluded++
			result.Outcomes = append(result.Outcomes, RowOutcome{
				SKU:    stock.SKU,
				Status: RowExcluded,
				Reason: "non-sellable suffix",
			})
			continue
		}

		snapshot, err := c.classifyOne(reportDate, stock, movements, brandBySKU)
		if err != nil {
			log.Warn().Err(err).Str("sku", stock.SKU).Msg("slow movers: row skipped")
			result.Failed++
			result.Outcomes = append(result.Outcomes, RowOutcome{
				SKU:    stock.SKU,
				Status: RowFailed,
				Reason: err.Error(),
			})
			continue
		}

		result.Classified++
		result.Snapshots = append(result.Snapshots, snapshot)
		result.Outcomes = append(result.Outcomes, RowOutcome{
			SKU:    stock.SKU,
			Status: RowClassified,
		})
	}

	return result
}

func (c *Classifier) classifyOne(
	reportDate time.Time,
	stock domain.StockRecord,
	movements map[string]MovementTotals,
	brandBySKU map[string]string,
) (domain.ClassificationSnapshot, error) {
	if strings.TrimSpace(stock.SKU) == "" {
		return domain.ClassificationSnapshot{}, fmt.Errorf("stock record has no SKU")
	}

	movement := movements[stock.SKU] // zero totals when the SKU never moved

	beginningBalance := movement.Balance - movement.QtyIn + movement.QtyOut
	reference := movement.QtyIn + movement.Balance
	percentage := domain.SellThroughPercentage(movement.QtyOut, reference)

	// The velocity ladder only ranks SKUs that had stock to sell. With no
	// intake and no balance there is no sell-through to measure, so the
	// row lands in the dead bucket outright.
	category := domain.DeadSeller
	if reference != 0 {
		category = domain.CategoryForPercentage(percentage)
	}

	return domain.ClassificationSnapshot{
		ReportDate:       reportDate,
		SKU:              stock.SKU,
		UPC:              stock.UPC,
		Brand:            domain.ResolveBrand(brandBySKU[stock.SKU], stock.Description),
		Classification:   stock.Classification(),
		Description:      stock.Description,
		QtyIn:            movement.QtyIn,
		QtyOut:           movement.QtyOut,
		Balance:          movement.Balance,
		Available:        stock.AvailableQty(),
		Cost:             stock.Cost,
		BeginningBalance: beginningBalance,
		Reference:        reference,
		Percentage:       percentage,
		Category:         category,
	}, nil
}

func (c *Classifier) isExcluded(sku string) bool {
	upper := strings.ToUpper(sku)
	for _, suffix := range c.excludedSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}
