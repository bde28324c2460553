package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/mailer"
	"github.com/manoj99-eng/krisco-backend/internal/offers"
	"github.com/manoj99-eng/krisco-backend/internal/repository"
	"github.com/manoj99-eng/krisco-backend/internal/repository/postgres"
	"github.com/manoj99-eng/krisco-backend/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OfferService commits working sets into durable artifacts and mails
// them out. The spreadsheet upload and its metadata row share one
// transaction, so a committed artifact always has its file and an
// aborted one leaves neither behind.
type OfferService struct {
	workingSets *offers.Service
	artifacts   repository.ArtifactRepository
	emailLog    repository.EmailLogRepository
	customers   repository.CustomerRepository
	objects     storage.ObjectStorage
	tx          postgres.TxRunner
	dispatcher  *mailer.Dispatcher
	now         func() time.Time
}

func NewOfferService(
	workingSets *offers.Service,
	artifacts repository.ArtifactRepository,
	emailLog repository.EmailLogRepository,
	customers repository.CustomerRepository,
	objects storage.ObjectStorage,
	tx postgres.TxRunner,
	dispatcher *mailer.Dispatcher,
) *OfferService {
	return &OfferService{
		workingSets: workingSets,
		artifacts:   artifacts,
		emailLog:    emailLog,
		customers:   customers,
		objects:     objects,
		tx:          tx,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// WorkingSets exposes the session-scoped working set operations.
func (s *OfferService) WorkingSets() *offers.Service {
	return s.workingSets
}

// Export renders the session's working set into a spreadsheet, uploads
// it and records the artifact, all or nothing. On success the working
// set is discarded.
func (s *OfferService) Export(ctx context.Context, token string, author domain.Identity) (*domain.OfferArtifact, error) {
	ws, err := s.workingSets.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	workbook, fileName, err := offers.BuildWorkbook(ws, now)
	if err != nil {
		return nil, err
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error rendering workbook: %w", err)
	}

	artifact := &domain.OfferArtifact{
		OfferType:    ws.Variant,
		CreatedDate:  now.Format("2006-01-02"),
		CreatedTime:  now.Format("15:04:05"),
		FileName:     fileName,
		ObjectKey:    "offers/" + fileName,
		AuthorName:   author.Name,
		AuthorEmail:  author.Email,
		CustomerRank: domain.DefaultCustomerRank,
		CreatedAt:    now,
	}

	uploaded := false
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.artifacts.CreateTx(ctx, tx, artifact); err != nil {
			return err
		}
		if err := s.objects.Upload(ctx, artifact.ObjectKey, buf.Bytes(), xlsxContentType); err != nil {
			return fmt.Errorf("error uploading artifact: %w", err)
		}
		uploaded = true
		return nil
	})
	if err != nil {
		if uploaded {
			// The metadata row rolled back after the upload; drop the
			// orphaned object so the store matches the catalog.
			if rmErr := s.objects.Remove(ctx, artifact.ObjectKey); rmErr != nil {
				log.Error().Err(rmErr).Str("object_key", artifact.ObjectKey).Msg("offer export: orphan cleanup failed")
			}
		}
		return nil, err
	}

	if err := s.workingSets.Discard(ctx, token); err != nil {
		log.Warn().Err(err).Str("token", token).Msg("offer export: working set discard failed")
	}

	log.Info().
		Int64("artifact_id", artifact.ID).
		Str("file_name", artifact.FileName).
		Str("offer_type", string(artifact.OfferType)).
		Msg("offer artifact committed")

	return artifact, nil
}

// GetArtifact returns one stored artifact's metadata.
func (s *OfferService) GetArtifact(ctx context.Context, id int64) (*domain.OfferArtifact, error) {
	return s.artifacts.Get(ctx, id)
}

// ListArtifacts returns the artifact catalog, newest first.
func (s *OfferService) ListArtifacts(ctx context.Context, offerType domain.OfferType, limit int) ([]domain.OfferArtifact, error) {
	return s.artifacts.List(ctx, offerType, limit)
}

// DownloadArtifact returns the stored spreadsheet bytes for an artifact.
func (s *OfferService) DownloadArtifact(ctx context.Context, id int64) (*domain.OfferArtifact, []byte, error) {
	artifact, err := s.artifacts.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.objects.Download(ctx, artifact.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("error downloading artifact %d: %w", id, err)
	}
	return artifact, data, nil
}

// SendArtifact mails a committed artifact to the matching customer
// segment. The aggregate succeeds only when every recipient got the
// mail; individual failures never stop the remaining recipients.
func (s *OfferService) SendArtifact(ctx context.Context, id int64, filter domain.CustomerFilter) (mailer.Result, error) {
	artifact, data, err := s.DownloadArtifact(ctx, id)
	if err != nil {
		return mailer.Result{}, err
	}

	if filter.Rank == "" {
		filter.Rank = artifact.CustomerRank
	}

	customers, err := s.customers.List(ctx, filter)
	if err != nil {
		return mailer.Result{}, err
	}
	if len(customers) == 0 {
		return mailer.Result{}, fmt.Errorf("no customers matched rank %q", filter.Rank)
	}

	result := s.dispatcher.Dispatch(
		ctx,
		customers,
		mailer.OfferSubject(artifact.FileName),
		mailer.OfferBody,
		artifact.FileName,
		data,
	)

	log.Info().
		Int64("artifact_id", id).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("offer artifact dispatched")

	return result, nil
}

// EmailLog returns the delivery audit trail, newest first.
func (s *OfferService) EmailLog(ctx context.Context, status domain.DeliveryStatus, since time.Time, limit int) ([]domain.EmailDeliveryRecord, error) {
	return s.emailLog.List(ctx, status, since, limit)
}
