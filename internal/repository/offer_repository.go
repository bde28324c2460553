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

type ArtifactRepository interface {
	// CreateTx inserts the artifact metadata row inside the caller's
	// transaction, so the row and the file write commit or roll back
	// together.
	CreateTx(ctx context.Context, tx *sqlx.Tx, artifact *domain.OfferArtifact) error
	Get(ctx context.Context, id int64) (*domain.OfferArtifact, error)
	List(ctx context.Context, offerType domain.OfferType, limit int) ([]domain.OfferArtifact, error)
}

type artifactRepository struct {
	db *postgres.DB
}

func NewArtifactRepository(db *postgres.DB) ArtifactRepository {
	return &artifactRepository{db: db}
}

func (r *artifactRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, artifact *domain.OfferArtifact) error {
	query := `
		INSERT INTO offer_artifacts (
			offer_type, created_date, created_time, file_name, object_key,
			author_name, author_email, customer_rank, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := tx.QueryRowContext(ctx, query,
		artifact.OfferType,
		artifact.CreatedDate,
		artifact.CreatedTime,
		artifact.FileName,
		artifact.ObjectKey,
		artifact.AuthorName,
		artifact.AuthorEmail,
		artifact.CustomerRank,
		artifact.CreatedAt,
	).Scan(&artifact.ID)
	if err != nil {
		return fmt.Errorf("error creating offer artifact: %w", err)
	}
	return nil
}

func (r *artifactRepository) Get(ctx context.Context, id int64) (*domain.OfferArtifact, error) {
	query := `
		SELECT id, offer_type, created_date, created_time, file_name, object_key,
			author_name, author_email, customer_rank, created_at
		FROM offer_artifacts
		WHERE id = $1
	`

	var artifact domain.OfferArtifact
	if err := r.db.GetContext(ctx, &artifact, query, id); err != nil {
		return nil, fmt.Errorf("error getting offer artifact %d: %w", id, err)
	}
	return &artifact, nil
}

func (r *artifactRepository) List(ctx context.Context, offerType domain.OfferType, limit int) ([]domain.OfferArtifact, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, offer_type, created_date, created_time, file_name, object_key,
			author_name, author_email, customer_rank, created_at
		FROM offer_artifacts
		WHERE 1=1
	`

	var args []interface{}
	argCounter := 1

	if offerType != "" {
		query += fmt.Sprintf(" AND offer_type = $%d", argCounter)
		args = append(args, offerType)
		argCounter++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	var artifacts []domain.OfferArtifact
	if err := r.db.SelectContext(ctx, &artifacts, query, args...); err != nil {
		return nil, fmt.Errorf("error listing offer artifacts: %w", err)
	}
	return artifacts, nil
}

type EmailLogRepository interface {
	Append(ctx context.Context, rec *domain.EmailDeliveryRecord) error
	List(ctx context.Context, status domain.DeliveryStatus, since time.Time, limit int) ([]domain.EmailDeliveryRecord, error)
}

type emailLogRepository struct {
	db *postgres.DB
}

func NewEmailLogRepository(db *postgres.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Append(ctx context.Context, rec *domain.EmailDeliveryRecord) error {
	query := `
		INSERT INTO email_delivery_log (
			recipient, cc, bcc, subject, attachment_name, status, error_detail, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.Recipient,
		rec.CC,
		rec.BCC,
		rec.Subject,
		rec.AttachmentName,
		rec.Status,
		rec.ErrorDetail,
		rec.SentAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("error appending email delivery record: %w", err)
	}
	return nil
}

func (r *emailLogRepository) List(ctx context.Context, status domain.DeliveryStatus, since time.Time, limit int) ([]domain.EmailDeliveryRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, recipient, cc, bcc, subject, attachment_name, status, error_detail, sent_at
		FROM email_delivery_log
		WHERE 1=1
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, status)
		argCounter++
	}

	if !since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("sent_at >= $%d", argCounter))
		args = append(args, since)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY sent_at DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	var records []domain.EmailDeliveryRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("error listing email delivery records: %w", err)
	}
	return records, nil
}
