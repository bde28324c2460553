package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/repository/postgres"
)

type StockRepository interface {
	List(ctx context.Context) ([]domain.StockRecord, error)
	UpsertBatch(ctx context.Context, records []domain.StockRecord) error
}

type MovementRepository interface {
	List(ctx context.Context) ([]domain.MovementRecord, error)
	UpsertBatch(ctx context.Context, records []domain.MovementRecord) error
}

type ItemRepository interface {
	BrandBySKU(ctx context.Context) (map[string]string, error)
	UpsertBatch(ctx context.Context, items []domain.Item) error
}

type stockRepository struct {
	db *postgres.DB
}

func NewStockRepository(db *postgres.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) List(ctx context.Context) ([]domain.StockRecord, error) {
	query := `
		SELECT sku, upc, item_classification, description, on_hand, allocated, available, cost
		FROM stock_records
		ORDER BY sku
	`

	var records []domain.StockRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error listing stock records: %w", err)
	}
	return records, nil
}

func (r *stockRepository) UpsertBatch(ctx context.Context, records []domain.StockRecord) error {
	query := `
		INSERT INTO stock_records (sku, upc, item_classification, description, on_hand, allocated, available, cost, updated_at)
		VALUES (:sku, :upc, :item_classification, :description, :on_hand, :allocated, :available, :cost, NOW())
		ON CONFLICT (sku) DO UPDATE SET
			upc = EXCLUDED.upc,
			item_classification = EXCLUDED.item_classification,
			description = EXCLUDED.description,
			on_hand = EXCLUDED.on_hand,
			allocated = EXCLUDED.allocated,
			available = EXCLUDED.available,
			cost = EXCLUDED.cost,
			updated_at = NOW()
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
				return fmt.Errorf("error upserting stock record %s: %w", rec.SKU, err)
			}
		}
		return nil
	})
}

type movementRepository struct {
	db *postgres.DB
}

func NewMovementRepository(db *postgres.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) List(ctx context.Context) ([]domain.MovementRecord, error) {
	query := `
		SELECT sku, item_description, qty_in, qty_out, balance
		FROM movement_records
		ORDER BY sku
	`

	var records []domain.MovementRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error listing movement records: %w", err)
	}
	return records, nil
}

func (r *movementRepository) UpsertBatch(ctx context.Context, records []domain.MovementRecord) error {
	query := `
		INSERT INTO movement_records (sku, item_description, qty_in, qty_out, balance, updated_at)
		VALUES (:sku, :item_description, :qty_in, :qty_out, :balance, NOW())
		ON CONFLICT (sku) DO UPDATE SET
			item_description = EXCLUDED.item_description,
			qty_in = EXCLUDED.qty_in,
			qty_out = EXCLUDED.qty_out,
			balance = EXCLUDED.balance,
			updated_at = NOW()
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
				return fmt.Errorf("error upserting movement record %s: %w", rec.SKU, err)
			}
		}
		return nil
	})
}

type itemRepository struct {
	db *postgres.DB
}

func NewItemRepository(db *postgres.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) BrandBySKU(ctx context.Context) (map[string]string, error) {
	query := `SELECT sku, brand FROM items WHERE brand <> ''`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error loading item brand reference: %w", err)
	}
	defer rows.Close()

	brands := make(map[string]string)
	for rows.Next() {
		var sku, brand string
		if err := rows.Scan(&sku, &brand); err != nil {
			return nil, fmt.Errorf("error scanning item brand: %w", err)
		}
		brands[sku] = brand
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item brands: %w", err)
	}
	return brands, nil
}

func (r *itemRepository) UpsertBatch(ctx context.Context, items []domain.Item) error {
	query := `
		INSERT INTO items (sku, description, brand, upc, unit_weight, price, classification, notes, updated_at)
		VALUES (:sku, :description, :brand, :upc, :unit_weight, :price, :classification, :notes, NOW())
		ON CONFLICT (sku) DO UPDATE SET
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			upc = EXCLUDED.upc,
			unit_weight = EXCLUDED.unit_weight,
			price = EXCLUDED.price,
			classification = EXCLUDED.classification,
			notes = EXCLUDED.notes,
			updated_at = NOW()
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, item := range items {
			if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
				return fmt.Errorf("error upserting item %s: %w", item.SKU, err)
			}
		}
		return nil
	})
}
