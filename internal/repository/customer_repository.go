package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/repository/postgres"
)

type CustomerRepository interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	List(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error)
	UpsertBatch(ctx context.Context, customers []domain.Customer) error
}

type StaffRepository interface {
	StaffMailConfig(ctx context.Context, staffID string) (domain.StaffMailConfig, error)
	UpsertBatch(ctx context.Context, configs []domain.StaffMailConfig) error
}

type customerRepository struct {
	db *postgres.DB
}

func NewCustomerRepository(db *postgres.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	query := `
		SELECT customer_id, first_name, last_name, email, cc_emails, bcc_emails,
			categories, rank, staff_id
		FROM customers
		WHERE customer_id = $1
	`

	var customer domain.Customer
	if err := r.db.GetContext(ctx, &customer, query, customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error getting customer %s: %w", customerID, err)
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	query := `
		SELECT customer_id, first_name, last_name, email, cc_emails, bcc_emails,
			categories, rank, staff_id
		FROM customers
		WHERE 1=1
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.Rank != "" {
		conditions = append(conditions, fmt.Sprintf("rank = $%d", argCounter))
		args = append(args, filter.Rank)
		argCounter++
	}

	if filter.Category != "" {
		// categories is a comma-joined tag list; match whole tags only.
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(string_to_array(categories, ','))", argCounter))
		args = append(args, filter.Category)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY customer_id"

	var customers []domain.Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, fmt.Errorf("error listing customers: %w", err)
	}
	return customers, nil
}

func (r *customerRepository) UpsertBatch(ctx context.Context, customers []domain.Customer) error {
	query := `
		INSERT INTO customers (customer_id, first_name, last_name, email, cc_emails, bcc_emails, categories, rank, staff_id)
		VALUES (:customer_id, :first_name, :last_name, :email, :cc_emails, :bcc_emails, :categories, :rank, :staff_id)
		ON CONFLICT (customer_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			cc_emails = EXCLUDED.cc_emails,
			bcc_emails = EXCLUDED.bcc_emails,
			categories = EXCLUDED.categories,
			rank = EXCLUDED.rank,
			staff_id = EXCLUDED.staff_id
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, c := range customers {
			if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
				return fmt.Errorf("error upserting customer %s: %w", c.CustomerID, err)
			}
		}
		return nil
	})
}

type staffRepository struct {
	db *postgres.DB
}

func NewStaffRepository(db *postgres.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) StaffMailConfig(ctx context.Context, staffID string) (domain.StaffMailConfig, error) {
	query := `
		SELECT staff_id, first_name, last_name, host, port, use_tls, username, password
		FROM staff_mail_configs
		WHERE staff_id = $1
	`

	var cfg domain.StaffMailConfig
	if err := r.db.GetContext(ctx, &cfg, query, staffID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StaffMailConfig{}, domain.ErrNoStaffConfig
		}
		return domain.StaffMailConfig{}, fmt.Errorf("error getting staff mail config %s: %w", staffID, err)
	}
	return cfg, nil
}

func (r *staffRepository) UpsertBatch(ctx context.Context, configs []domain.StaffMailConfig) error {
	query := `
		INSERT INTO staff_mail_configs (staff_id, first_name, last_name, host, port, use_tls, username, password)
		VALUES (:staff_id, :first_name, :last_name, :host, :port, :use_tls, :username, :password)
		ON CONFLICT (staff_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			host = EXCLUDED.host,
			port = EXCLUDED.port,
			use_tls = EXCLUDED.use_tls,
			username = EXCLUDED.username,
			password = EXCLUDED.password
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, cfg := range configs {
			if _, err := tx.NamedExecContext(ctx, query, cfg); err != nil {
				return fmt.Errorf("error upserting staff mail config %s: %w", cfg.StaffID, err)
			}
		}
		return nil
	})
}
