package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/pipeline/slowmovers"
	"github.com/manoj99-eng/krisco-backend/internal/repository"
)

// ClassificationService runs the slow-movers pipeline end to end: it
// reads the imported stock and movement tables, classifies every
// eligible SKU and persists the result as the snapshot for the report
// date.
type ClassificationService struct {
	stocks     repository.StockRepository
	movements  repository.MovementRepository
	items      repository.ItemRepository
	snapshots  repository.SnapshotRepository
	classifier *slowmovers.Classifier
}

func NewClassificationService(
	stocks repository.StockRepository,
	movements repository.MovementRepository,
	items repository.ItemRepository,
	snapshots repository.SnapshotRepository,
	classifier *slowmovers.Classifier,
) *ClassificationService {
	return &ClassificationService{
		stocks:     stocks,
		movements:  movements,
		items:      items,
		snapshots:  snapshots,
		classifier: classifier,
	}
}

// Run classifies the current stock position and stores the snapshot.
// Re-running for the same report date overwrites the previous run.
func (s *ClassificationService) Run(ctx context.Context, reportDate time.Time) (slowmovers.RunResult, error) {
	start := time.Now()

	stocks, err := s.stocks.List(ctx)
	if err != nil {
		return slowmovers.RunResult{}, fmt.Errorf("error loading stock records: %w", err)
	}

	movements, err := s.movements.List(ctx)
	if err != nil {
		return slowmovers.RunResult{}, fmt.Errorf("error loading movement records: %w", err)
	}

	brands, err := s.items.BrandBySKU(ctx)
	if err != nil {
		return slowmovers.RunResult{}, fmt.Errorf("error loading brand reference: %w", err)
	}

	result := s.classifier.Classify(reportDate, stocks, slowmovers.Aggregate(movements), brands)

	if err := s.snapshots.UpsertBatch(ctx, result.Snapshots); err != nil {
		return slowmovers.RunResult{}, fmt.Errorf("error storing snapshot: %w", err)
	}

	log.Info().
		Str("report_date", reportDate.Format("2006-01-02")).
		Int("classified", result.Classified).
		Int("excluded", result.Excluded).
		Int("failed", result.Failed).
		Dur("took", time.Since(start)).
		Msg("classification run stored")

	return result, nil
}

// Query returns stored snapshot rows matching the filter.
func (s *ClassificationService) Query(ctx context.Context, filter domain.SnapshotFilter) ([]domain.ClassificationSnapshot, error) {
	return s.snapshots.Query(ctx, filter)
}

// AvailableDates lists the most recent report dates with a snapshot.
func (s *ClassificationService) AvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.snapshots.AvailableDates(ctx, limit)
}
