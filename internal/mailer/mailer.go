package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

// Message is one outbound offer mail.
type Message struct {
	To             string
	CC             []string
	BCC            []string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Sender delivers one message with a specific staff send identity.
type Sender interface {
	Send(cfg domain.StaffMailConfig, msg Message) error
}

// SMTPSender sends through each staff member's own SMTP account.
type SMTPSender struct{}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

func (s *SMTPSender) Send(cfg domain.StaffMailConfig, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.Username)
	m.SetHeader("To", msg.To)
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
	}
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if msg.AttachmentName != "" {
		m.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(msg.Attachment))
			return err
		}))
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}
	return d.DialAndSend(m)
}

// StaffDirectory resolves staff mail configurations by staff id.
type StaffDirectory interface {
	StaffMailConfig(ctx context.Context, staffID string) (domain.StaffMailConfig, error)
}

// DeliveryLog appends audit rows, one per send attempt.
type DeliveryLog interface {
	Append(ctx context.Context, rec *domain.EmailDeliveryRecord) error
}

// Dispatcher sends an artifact to a customer list, one recipient at a
// time, with a per-staff sender identity. Ordering and the per-recipient
// audit trail matter more than throughput here, so the loop stays
// sequential.
type Dispatcher struct {
	staff  StaffDirectory
	audit  DeliveryLog
	sender Sender
	now    func() time.Time
}

func NewDispatcher(staff StaffDirectory, audit DeliveryLog, sender Sender) *Dispatcher {
	return &Dispatcher{staff: staff, audit: audit, sender: sender, now: time.Now}
}

// Result aggregates a dispatch loop. AllSucceeded is true only when
// every recipient was attempted and delivered.
type Result struct {
	Sent    int                          `json:"sent"`
	Failed  int                          `json:"failed"`
	Skipped int                          `json:"skipped"`
	Records []domain.EmailDeliveryRecord `json:"records"`
}

func (r Result) AllSucceeded() bool {
	return r.Failed == 0 && r.Skipped == 0 && r.Sent > 0
}

// Dispatch mails the attachment to each customer. A recipient with no
// staff mail configuration is recorded as a skipped pre-check and never
// attempted; a transport failure is logged and audited. Neither stops
// the loop.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	customers []domain.Customer,
	subject, body, attachmentName string,
	attachment []byte,
) Result {
	var result Result

	for _, customer := range customers {
		cfg, err := d.staff.StaffMailConfig(ctx, customer.StaffID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("customer_id", customer.CustomerID).
				Str("staff_id", customer.StaffID).
				Msg("mailer: recipient skipped, no staff mail configuration")
			result.Skipped++
			continue
		}

		msg := Message{
			To:             customer.Email,
			CC:             domain.SplitAddressList(customer.CCEmails),
			BCC:            domain.SplitAddressList(customer.BCCEmails),
			Subject:        subject,
			Body:           body,
			AttachmentName: attachmentName,
			Attachment:     attachment,
		}

		rec := domain.EmailDeliveryRecord{
			Recipient:      customer.Email,
			CC:             customer.CCEmails,
			BCC:            customer.BCCEmails,
			Subject:        subject,
			AttachmentName: attachmentName,
			Status:         domain.DeliverySuccess,
			SentAt:         d.now(),
		}

		if err := d.sender.Send(cfg, msg); err != nil {
			log.Error().
				Err(err).
				Str("recipient", customer.Email).
				Str("staff_id", customer.StaffID).
				Msg("mailer: delivery failed")
			rec.Status = domain.DeliveryFailure
			rec.ErrorDetail = err.Error()
			result.Failed++
		} else {
			result.Sent++
		}

		if err := d.audit.Append(ctx, &rec); err != nil {
			// The audit row is the contract; surface loudly but keep going.
			log.Error().Err(err).Str("recipient", customer.Email).Msg("mailer: audit append failed")
		}
		result.Records = append(result.Records, rec)
	}

	return result
}

// OfferSubject is the fixed template subject for offer mails.
func OfferSubject(fileName string) string {
	return fmt.Sprintf("Krisco Weekly Offer - %s", fileName)
}

// OfferBody is the fixed template body for offer mails.
const OfferBody = "Please find the attached offer sheet with this week's prices and available quantities."

// OrderSubject is the fixed template subject for order confirmations.
func OrderSubject(orderID string) string {
	return fmt.Sprintf("New Order Received: %s", orderID)
}

// OrderBody is the fixed template body for order confirmations.
const OrderBody = "Please find the attached Excel file containing the order details."
