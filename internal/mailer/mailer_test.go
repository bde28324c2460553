package mailer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

type fakeStaffDirectory struct {
	configs map[string]domain.StaffMailConfig
}

func (f *fakeStaffDirectory) StaffMailConfig(_ context.Context, staffID string) (domain.StaffMailConfig, error) {
	cfg, ok := f.configs[staffID]
	if !ok {
		return domain.StaffMailConfig{}, domain.ErrNoStaffConfig
	}
	return cfg, nil
}

type fakeDeliveryLog struct {
	records []domain.EmailDeliveryRecord
}

func (f *fakeDeliveryLog) Append(_ context.Context, rec *domain.EmailDeliveryRecord) error {
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return nil
}

type fakeSender struct {
	failFor  map[string]error
	messages []Message
}

func (f *fakeSender) Send(_ domain.StaffMailConfig, msg Message) error {
	if err, ok := f.failFor[msg.To]; ok {
		return err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func customerFixture() []domain.Customer {
	return []domain.Customer{
		{CustomerID: "C1", Email: "one@shop.com", CCEmails: "cc@shop.com", StaffID: "S1"},
		{CustomerID: "C2", Email: "two@shop.com", StaffID: "S1"},
		{CustomerID: "C3", Email: "three@shop.com", StaffID: "S-MISSING"},
	}
}

func newTestDispatcher(sender *fakeSender) (*Dispatcher, *fakeDeliveryLog) {
	staff := &fakeStaffDirectory{configs: map[string]domain.StaffMailConfig{
		"S1": {StaffID: "S1", Host: "smtp.example.com", Port: 587, Username: "s1@krisco.com"},
	}}
	audit := &fakeDeliveryLog{}
	d := NewDispatcher(staff, audit, sender)
	d.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return d, audit
}

func TestDispatchAllDelivered(t *testing.T) {
	sender := &fakeSender{}
	d, audit := newTestDispatcher(sender)

	customers := customerFixture()[:2]
	result := d.Dispatch(context.Background(), customers, "subject", "body", "offer.xlsx", []byte("data"))

	if !result.AllSucceeded() {
		t.Errorf("expected success, got %+v", result)
	}
	if result.Sent != 2 {
		t.Errorf("sent = %d, want 2", result.Sent)
	}
	if len(audit.records) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(audit.records))
	}
	for _, rec := range audit.records {
		if rec.Status != domain.DeliverySuccess {
			t.Errorf("record %q status = %q", rec.Recipient, rec.Status)
		}
		if rec.AttachmentName != "offer.xlsx" {
			t.Errorf("record attachment = %q", rec.AttachmentName)
		}
	}

	if len(sender.messages) != 2 {
		t.Fatalf("messages = %d", len(sender.messages))
	}
	if got := sender.messages[0].CC; len(got) != 1 || got[0] != "cc@shop.com" {
		t.Errorf("cc list = %v", got)
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[string]error{
		"one@shop.com": errors.New("connection refused"),
	}}
	d, audit := newTestDispatcher(sender)

	result := d.Dispatch(context.Background(), customerFixture(), "subject", "body", "offer.xlsx", nil)

	if result.Sent != 1 || result.Failed != 1 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want 1 sent, 1 failed, 1 skipped", result)
	}
	if result.AllSucceeded() {
		t.Error("partial delivery must not report aggregate success")
	}

	// Skipped recipients are never attempted and get no audit row;
	// failed ones keep the transport error.
	if len(audit.records) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(audit.records))
	}
	var failure *domain.EmailDeliveryRecord
	for i := range audit.records {
		if audit.records[i].Status == domain.DeliveryFailure {
			failure = &audit.records[i]
		}
	}
	if failure == nil {
		t.Fatal("no failure record")
	}
	if failure.Recipient != "one@shop.com" || failure.ErrorDetail != "connection refused" {
		t.Errorf("failure record = %+v", failure)
	}
}

func TestDispatchSkippedOnlyIsNotSuccess(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(sender)

	customers := []domain.Customer{{CustomerID: "C9", Email: "nine@shop.com", StaffID: "S-MISSING"}}
	result := d.Dispatch(context.Background(), customers, "s", "b", "f.xlsx", nil)

	if result.AllSucceeded() {
		t.Error("all-skipped batch must not report success")
	}
	if result.Skipped != 1 || result.Sent != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestDispatchEmptyListIsNotSuccess(t *testing.T) {
	d, _ := newTestDispatcher(&fakeSender{})
	result := d.Dispatch(context.Background(), nil, "s", "b", "f.xlsx", nil)
	if result.AllSucceeded() {
		t.Error("empty batch must not report success")
	}
}

func TestOfferSubject(t *testing.T) {
	got := OfferSubject("Krisco_CHANEL_20260830120000.xlsx")
	want := fmt.Sprintf("Krisco Weekly Offer - %s", "Krisco_CHANEL_20260830120000.xlsx")
	if got != want {
		t.Errorf("OfferSubject = %q, want %q", got, want)
	}
}
