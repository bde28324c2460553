package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/manoj99-eng/krisco-backend/internal/importer"
	"github.com/manoj99-eng/krisco-backend/internal/repository"
)

// ImportService loads the periodic report files and the seed CSVs into
// their tables. Each import is parse-then-write: a file that fails to
// parse leaves the table untouched.
type ImportService struct {
	stocks    repository.StockRepository
	movements repository.MovementRepository
	items     repository.ItemRepository
	customers repository.CustomerRepository
	staff     repository.StaffRepository
}

func NewImportService(
	stocks repository.StockRepository,
	movements repository.MovementRepository,
	items repository.ItemRepository,
	customers repository.CustomerRepository,
	staff repository.StaffRepository,
) *ImportService {
	return &ImportService{
		stocks:    stocks,
		movements: movements,
		items:     items,
		customers: customers,
		staff:     staff,
	}
}

// ImportStock loads a tab-delimited stock report.
func (s *ImportService) ImportStock(ctx context.Context, r io.Reader) (importer.Result, error) {
	records, res, err := importer.ReadStockFile(r)
	if err != nil {
		return importer.Result{}, err
	}
	if err := s.stocks.UpsertBatch(ctx, records); err != nil {
		return importer.Result{}, fmt.Errorf("error storing stock records: %w", err)
	}
	log.Info().Int("parsed", res.Parsed).Int("skipped", res.Skipped).Msg("stock import complete")
	return res, nil
}

// ImportMovement loads a tab-delimited movement report.
func (s *ImportService) ImportMovement(ctx context.Context, r io.Reader) (importer.Result, error) {
	records, res, err := importer.ReadMovementFile(r)
	if err != nil {
		return importer.Result{}, err
	}
	if err := s.movements.UpsertBatch(ctx, records); err != nil {
		return importer.Result{}, fmt.Errorf("error storing movement records: %w", err)
	}
	log.Info().Int("parsed", res.Parsed).Int("skipped", res.Skipped).Msg("movement import complete")
	return res, nil
}

// ImportItems loads the item master CSV.
func (s *ImportService) ImportItems(ctx context.Context, r io.Reader) (importer.Result, error) {
	items, res, err := importer.ReadItemFile(r)
	if err != nil {
		return importer.Result{}, err
	}
	if err := s.items.UpsertBatch(ctx, items); err != nil {
		return importer.Result{}, fmt.Errorf("error storing items: %w", err)
	}
	log.Info().Int("parsed", res.Parsed).Int("skipped", res.Skipped).Msg("item import complete")
	return res, nil
}

// SeedCustomers loads the customer directory CSV.
func (s *ImportService) SeedCustomers(ctx context.Context, r io.Reader) (importer.Result, error) {
	customers, res, err := importer.ReadCustomerFile(r)
	if err != nil {
		return importer.Result{}, err
	}
	if err := s.customers.UpsertBatch(ctx, customers); err != nil {
		return importer.Result{}, fmt.Errorf("error storing customers: %w", err)
	}
	log.Info().Int("parsed", res.Parsed).Int("skipped", res.Skipped).Msg("customer seed complete")
	return res, nil
}

// SeedStaff loads the per-staff SMTP configuration CSV.
func (s *ImportService) SeedStaff(ctx context.Context, r io.Reader) (importer.Result, error) {
	configs, res, err := importer.ReadStaffFile(r)
	if err != nil {
		return importer.Result{}, err
	}
	if err := s.staff.UpsertBatch(ctx, configs); err != nil {
		return importer.Result{}, fmt.Errorf("error storing staff mail configs: %w", err)
	}
	log.Info().Int("parsed", res.Parsed).Int("skipped", res.Skipped).Msg("staff seed complete")
	return res, nil
}
