package slowmovers

import (
	"time"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

// MovementTotals is the year-to-date movement position for one SKU.
type MovementTotals struct {
	QtyIn   int
	QtyOut  int
	Balance int
}

// RowStatus is the per-SKU outcome of a classification run.
type RowStatus string

const (
	RowClassified RowStatus = "classified"
	RowExcluded   RowStatus = "excluded"
	RowFailed     RowStatus = "failed"
)

// RowOutcome records what happened to a single stock record during a run.
type RowOutcome struct {
	SKU    string    `json:"sku"`
	Status RowStatus `json:"status"`
	Reason string    `json:"reason,omitempty"`
}

// RunResult is the collected outcome of one classification batch. The
// run itself never aborts on a bad row; failures are isolated here.
type RunResult struct {
	ReportDate time.Time                       `json:"report_date"`
	Snapshots  []domain.ClassificationSnapshot `json:"-"`
	Outcomes   []RowOutcome                    `json:"outcomes"`
	Classified int                             `json:"classified"`
	Excluded   int                             `json:"excluded"`
	Failed     int                             `json:"failed"`
}

// Config holds the tunable inputs of the classifier.
type Config struct {
	// ExcludedSuffixes lists SKU suffixes that mark non-sellable
	// variants (testers, samples, unboxed and regional stock).
	ExcludedSuffixes []string
}

// DefaultExcludedSuffixes is the stock denylist for non-sellable SKUs.
var DefaultExcludedSuffixes = []string{
	"-TESTER",
	"-SAMPLE",
	"-NOBOX",
	"-NO BOX",
	"-EU",
	"-UK",
}
