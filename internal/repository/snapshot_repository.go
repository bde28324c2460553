package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/repository/postgres"
)

type SnapshotRepository interface {
	// UpsertBatch writes one classification run inside a single
	// transaction, keyed on (report_date, sku) so re-running a date
	// overwrites in place.
	UpsertBatch(ctx context.Context, snapshots []domain.ClassificationSnapshot) error
	Query(ctx context.Context, filter domain.SnapshotFilter) ([]domain.ClassificationSnapshot, error)
	LatestRows(ctx context.Context) ([]domain.ClassificationSnapshot, error)
	AvailableDates(ctx context.Context, limit int) ([]time.Time, error)
	// ReserveAvailableTx deducts a committed order quantity from the
	// latest snapshot row for the SKU, inside the caller's transaction.
	// It refuses to take availability below zero.
	ReserveAvailableTx(ctx context.Context, tx *sqlx.Tx, sku string, qty int) error
}

type snapshotRepository struct {
	db *postgres.DB
}

func NewSnapshotRepository(db *postgres.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) UpsertBatch(ctx context.Context, snapshots []domain.ClassificationSnapshot) error {
	query := `
		INSERT INTO classification_snapshots (
			report_date, sku, upc, brand, classification, description,
			qty_in, qty_out, balance, available, cost,
			beginning_balance, reference, percentage, category
		) VALUES (
			:report_date, :sku, :upc, :brand, :classification, :description,
			:qty_in, :qty_out, :balance, :available, :cost,
			:beginning_balance, :reference, :percentage, :category
		)
		ON CONFLICT (report_date, sku) DO UPDATE SET
			upc = EXCLUDED.upc,
			brand = EXCLUDED.brand,
			classification = EXCLUDED.classification,
			description = EXCLUDED.description,
			qty_in = EXCLUDED.qty_in,
			qty_out = EXCLUDED.qty_out,
			balance = EXCLUDED.balance,
			available = EXCLUDED.available,
			cost = EXCLUDED.cost,
			beginning_balance = EXCLUDED.beginning_balance,
			reference = EXCLUDED.reference,
			percentage = EXCLUDED.percentage,
			category = EXCLUDED.category
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, snap := range snapshots {
			if _, err := tx.NamedExecContext(ctx, query, snap); err != nil {
				return fmt.Errorf("error upserting snapshot %s: %w", snap.SKU, err)
			}
		}
		return nil
	})
}

func (r *snapshotRepository) Query(ctx context.Context, filter domain.SnapshotFilter) ([]domain.ClassificationSnapshot, error) {
	query := `
		SELECT id, report_date, sku, upc, brand, classification, description,
			qty_in, qty_out, balance, available, cost,
			beginning_balance, reference, percentage, category
		FROM classification_snapshots
		WHERE 1=1
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.ReportDate != "" {
		conditions = append(conditions, fmt.Sprintf("report_date = $%d::date", argCounter))
		args = append(args, filter.ReportDate)
		argCounter++
	}

	if filter.Brand != "" {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", argCounter))
		args = append(args, filter.Brand)
		argCounter++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCounter))
		args = append(args, filter.Category)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY brand, sku"

	var snapshots []domain.ClassificationSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("error querying snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *snapshotRepository) LatestRows(ctx context.Context) ([]domain.ClassificationSnapshot, error) {
	query := `
		SELECT id, report_date, sku, upc, brand, classification, description,
			qty_in, qty_out, balance, available, cost,
			beginning_balance, reference, percentage, category
		FROM classification_snapshots
		WHERE report_date = (SELECT MAX(report_date) FROM classification_snapshots)
		ORDER BY brand, sku
	`

	var snapshots []domain.ClassificationSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query); err != nil {
		return nil, fmt.Errorf("error loading latest snapshot: %w", err)
	}
	return snapshots, nil
}

func (r *snapshotRepository) ReserveAvailableTx(ctx context.Context, tx *sqlx.Tx, sku string, qty int) error {
	query := `
		UPDATE classification_snapshots
		SET available = available - $2
		WHERE sku = $1
			AND report_date = (SELECT MAX(report_date) FROM classification_snapshots)
			AND available >= $2
	`

	res, err := tx.ExecContext(ctx, query, sku, qty)
	if err != nil {
		return fmt.Errorf("error reserving stock for %s: %w", sku, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reserving stock for %s: %w", sku, err)
	}
	if affected == 0 {
		return fmt.Errorf("sku %s: %w", sku, domain.ErrInsufficientStock)
	}
	return nil
}

func (r *snapshotRepository) AvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT report_date
		FROM classification_snapshots
		ORDER BY report_date DESC
		LIMIT $1
	`

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, fmt.Errorf("error getting available dates: %w", err)
	}
	return dates, nil
}
