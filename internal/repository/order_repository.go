package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/repository/postgres"
)

type OrderRepository interface {
	// CreateTx inserts the order inside the caller's transaction so the
	// order row and its stock reservation commit or roll back together.
	CreateTx(ctx context.Context, tx *sqlx.Tx, order *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	List(ctx context.Context, approved *bool, limit int) ([]domain.Order, error)
	// Approve marks the order fulfilled; a non-empty notes value
	// replaces the placeholder with the 3PL transaction number.
	Approve(ctx context.Context, orderID, notes string) error
}

type orderRepository struct {
	db *postgres.DB
}

func NewOrderRepository(db *postgres.DB) OrderRepository {
	return &orderRepository{db: db}
}

// orderRow carries the raw order_data JSON document next to the scanned
// order columns.
type orderRow struct {
	domain.Order
	OrderData []byte `db:"order_data"`
}

func (r *orderRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, order *domain.Order) error {
	data, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("error encoding order lines: %w", err)
	}

	query := `
		INSERT INTO orders (
			order_id, customer_id, customer_email, customer_first_name, customer_last_name,
			order_data, total_quantity, total_amount, is_approved, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, query,
		order.OrderID,
		order.CustomerID,
		order.CustomerEmail,
		order.CustomerFirstName,
		order.CustomerLastName,
		data,
		order.TotalQuantity,
		order.TotalAmount,
		order.IsApproved,
		order.Notes,
		order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("error creating order %s: %w", order.OrderID, err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `
		SELECT id, order_id, customer_id, customer_email, customer_first_name, customer_last_name,
			order_data, total_quantity, total_amount, is_approved, notes, created_at
		FROM orders
		WHERE order_id = $1
	`

	var row orderRow
	if err := r.db.GetContext(ctx, &row, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("error getting order %s: %w", orderID, err)
	}
	return row.toOrder()
}

func (r *orderRepository) List(ctx context.Context, approved *bool, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, order_id, customer_id, customer_email, customer_first_name, customer_last_name,
			order_data, total_quantity, total_amount, is_approved, notes, created_at
		FROM orders
		WHERE 1=1
	`

	var args []interface{}
	argCounter := 1

	if approved != nil {
		query += fmt.Sprintf(" AND is_approved = $%d", argCounter)
		args = append(args, *approved)
		argCounter++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error listing orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (r *orderRepository) Approve(ctx context.Context, orderID, notes string) error {
	query := `
		UPDATE orders
		SET is_approved = TRUE,
			notes = CASE WHEN $2 <> '' THEN $2 ELSE notes END
		WHERE order_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, orderID, notes)
	if err != nil {
		return fmt.Errorf("error approving order %s: %w", orderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error approving order %s: %w", orderID, err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (row orderRow) toOrder() (*domain.Order, error) {
	order := row.Order
	if len(row.OrderData) > 0 {
		if err := json.Unmarshal(row.OrderData, &order.Lines); err != nil {
			return nil, fmt.Errorf("error decoding order %s lines: %w", order.OrderID, err)
		}
	}
	return &order, nil
}
