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
)

const orderAttachmentName = "preview_order.xlsx"

// OrderService turns a priced working set into durable customer orders.
// The order row and its stock reservation share one transaction; the
// confirmation mail rides the same per-staff dispatch loop as offers.
type OrderService struct {
	workingSets *offers.Service
	orders      repository.OrderRepository
	snapshots   repository.SnapshotRepository
	customers   repository.CustomerRepository
	tx          postgres.TxRunner
	dispatcher  *mailer.Dispatcher
	now         func() time.Time
}

func NewOrderService(
	workingSets *offers.Service,
	orders repository.OrderRepository,
	snapshots repository.SnapshotRepository,
	customers repository.CustomerRepository,
	tx postgres.TxRunner,
	dispatcher *mailer.Dispatcher,
) *OrderService {
	return &OrderService{
		workingSets: workingSets,
		orders:      orders,
		snapshots:   snapshots,
		customers:   customers,
		tx:          tx,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// Submit prices the requested quantities against the session's working
// set, records the order and reserves the stock, then mails the
// customer a spreadsheet of the order lines. A failed mail leaves the
// committed order in place; the delivery result reports the outcome.
func (s *OrderService) Submit(ctx context.Context, token string, req domain.OrderRequest) (*domain.Order, mailer.Result, error) {
	lines, err := s.workingSets.PriceOrder(ctx, token, req.Quantities)
	if err != nil {
		return nil, mailer.Result{}, err
	}

	customer, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, mailer.Result{}, err
	}

	now := s.now()
	order := &domain.Order{
		OrderID:           "ORDER-" + now.Format("20060102150405"),
		CustomerID:        customer.CustomerID,
		CustomerEmail:     customer.Email,
		CustomerFirstName: customer.FirstName,
		CustomerLastName:  customer.LastName,
		Lines:             lines,
		Notes:             domain.DefaultOrderNotes,
		CreatedAt:         now,
	}
	for _, line := range lines {
		order.TotalQuantity += line.Quantity
		order.TotalAmount = order.TotalAmount.Add(line.LineTotal)
	}

	workbook, err := offers.BuildOrderWorkbook(order)
	if err != nil {
		return nil, mailer.Result{}, err
	}
	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, mailer.Result{}, fmt.Errorf("error rendering order workbook: %w", err)
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.CreateTx(ctx, tx, order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := s.snapshots.ReserveAvailableTx(ctx, tx, line.SKU, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mailer.Result{}, err
	}

	if err := s.workingSets.Deduct(ctx, token, req.Quantities); err != nil {
		log.Warn().Err(err).Str("order_id", order.OrderID).Msg("order submit: working set deduction failed")
	}

	result := s.dispatcher.Dispatch(
		ctx,
		[]domain.Customer{*customer},
		mailer.OrderSubject(order.OrderID),
		mailer.OrderBody,
		orderAttachmentName,
		buf.Bytes(),
	)

	log.Info().
		Str("order_id", order.OrderID).
		Str("customer_id", order.CustomerID).
		Int("lines", len(order.Lines)).
		Int("total_quantity", order.TotalQuantity).
		Str("total_amount", order.TotalAmount.String()).
		Msg("order submitted")

	return order, result, nil
}

// Get returns one order with its lines.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// List returns orders newest first, optionally by approval state.
func (s *OrderService) List(ctx context.Context, approved *bool, limit int) ([]domain.Order, error) {
	return s.orders.List(ctx, approved, limit)
}

// Approve marks an order fulfilled, recording the 3PL transaction
// number when one is supplied.
func (s *OrderService) Approve(ctx context.Context, orderID, notes string) error {
	return s.orders.Approve(ctx, orderID, notes)
}
