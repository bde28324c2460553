package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/manoj99-eng/krisco-backend/internal/cache"
	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/mailer"
	"github.com/manoj99-eng/krisco-backend/internal/offers"
)

type fakeSnapshots struct {
	rows []domain.ClassificationSnapshot
}

func (f *fakeSnapshots) LatestRows(_ context.Context) ([]domain.ClassificationSnapshot, error) {
	return f.rows, nil
}

// fakeTxRunner stands in for the database pool. commitErr simulates a
// transaction that fails at commit, after the body already ran.
type fakeTxRunner struct {
	commitErr error
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return f.commitErr
}

type fakeArtifactRepo struct {
	created []domain.OfferArtifact
	stored  map[int64]domain.OfferArtifact
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{stored: make(map[int64]domain.OfferArtifact)}
}

func (f *fakeArtifactRepo) CreateTx(_ context.Context, _ *sqlx.Tx, artifact *domain.OfferArtifact) error {
	artifact.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *artifact)
	f.stored[artifact.ID] = *artifact
	return nil
}

func (f *fakeArtifactRepo) Get(_ context.Context, id int64) (*domain.OfferArtifact, error) {
	artifact, ok := f.stored[id]
	if !ok {
		return nil, fmt.Errorf("artifact %d not found", id)
	}
	return &artifact, nil
}

func (f *fakeArtifactRepo) List(_ context.Context, _ domain.OfferType, _ int) ([]domain.OfferArtifact, error) {
	return f.created, nil
}

type fakeEmailLog struct {
	records []domain.EmailDeliveryRecord
}

func (f *fakeEmailLog) Append(_ context.Context, rec *domain.EmailDeliveryRecord) error {
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeEmailLog) List(_ context.Context, _ domain.DeliveryStatus, _ time.Time, _ int) ([]domain.EmailDeliveryRecord, error) {
	return f.records, nil
}

type fakeCustomerRepo struct {
	customers []domain.Customer
}

func (f *fakeCustomerRepo) Get(_ context.Context, customerID string) (*domain.Customer, error) {
	for _, c := range f.customers {
		if c.CustomerID == customerID {
			customer := c
			return &customer, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (f *fakeCustomerRepo) List(_ context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	var out []domain.Customer
	for _, c := range f.customers {
		if filter.Rank != "" && c.Rank != filter.Rank {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCustomerRepo) UpsertBatch(_ context.Context, _ []domain.Customer) error { return nil }

type fakeObjectStorage struct {
	objects   map[string][]byte
	removed   []string
	uploadErr error
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte)}
}

func (f *fakeObjectStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStorage) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (f *fakeObjectStorage) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

type fakeStaffDirectory struct{}

func (fakeStaffDirectory) StaffMailConfig(_ context.Context, staffID string) (domain.StaffMailConfig, error) {
	if staffID == "" {
		return domain.StaffMailConfig{}, domain.ErrNoStaffConfig
	}
	return domain.StaffMailConfig{StaffID: staffID, Host: "smtp.example.com", Port: 587}, nil
}

type fakeSender struct {
	sent []mailer.Message
}

func (f *fakeSender) Send(_ domain.StaffMailConfig, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type offerServiceFixture struct {
	service   *OfferService
	artifacts *fakeArtifactRepo
	objects   *fakeObjectStorage
	tx        *fakeTxRunner
	sender    *fakeSender
	emailLog  *fakeEmailLog
}

func newOfferServiceFixture(t *testing.T) *offerServiceFixture {
	t.Helper()

	store := cache.NewMemoryWorkingSetStore()
	snapshots := &fakeSnapshots{rows: []domain.ClassificationSnapshot{
		{SKU: "CH-1", Brand: "CHANEL", Category: domain.SlowSeller, Available: 5, Cost: decimal.NewFromInt(20)},
	}}
	workingSets := offers.NewService(store, snapshots)

	artifacts := newFakeArtifactRepo()
	objects := newFakeObjectStorage()
	tx := &fakeTxRunner{}
	emailLog := &fakeEmailLog{}
	sender := &fakeSender{}
	customers := &fakeCustomerRepo{customers: []domain.Customer{
		{CustomerID: "C1", Email: "one@shop.com", Rank: "DIAMOND", StaffID: "S1"},
		{CustomerID: "C2", Email: "two@shop.com", Rank: "GOLD", StaffID: "S1"},
	}}

	dispatcher := mailer.NewDispatcher(fakeStaffDirectory{}, emailLog, sender)

	return &offerServiceFixture{
		service:   NewOfferService(workingSets, artifacts, emailLog, customers, objects, tx, dispatcher),
		artifacts: artifacts,
		objects:   objects,
		tx:        tx,
		sender:    sender,
		emailLog:  emailLog,
	}
}

func seedWorkingSet(t *testing.T, fx *offerServiceFixture, token string) {
	t.Helper()
	rows, err := fx.service.WorkingSets().Filter(context.Background(), token,
		domain.OfferRegular, []domain.SellerCategory{domain.SlowSeller}, []string{"CHANEL"})
	if err != nil {
		t.Fatalf("seed working set: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("seed produced no rows")
	}
}

func TestExportCommitsArtifactAndObjectTogether(t *testing.T) {
	fx := newOfferServiceFixture(t)
	ctx := context.Background()
	seedWorkingSet(t, fx, "tok")

	artifact, err := fx.service.Export(ctx, "tok", domain.Identity{Name: "Ana", Email: "ana@krisco.com"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if artifact.ID == 0 {
		t.Error("artifact id not assigned")
	}
	if !strings.HasPrefix(artifact.FileName, "Krisco_CHANEL_") || !strings.HasSuffix(artifact.FileName, ".xlsx") {
		t.Errorf("file name = %q", artifact.FileName)
	}
	if artifact.CustomerRank != domain.DefaultCustomerRank {
		t.Errorf("customer rank = %q, want %q", artifact.CustomerRank, domain.DefaultCustomerRank)
	}
	if artifact.AuthorName != "Ana" {
		t.Errorf("author = %q", artifact.AuthorName)
	}

	if _, ok := fx.objects.objects[artifact.ObjectKey]; !ok {
		t.Error("spreadsheet object missing after commit")
	}

	// A committed export consumes the working set.
	rows, _ := fx.service.WorkingSets().Rows(ctx, "tok")
	if len(rows) != 0 {
		t.Errorf("working set survived export: %d rows", len(rows))
	}
}

func TestExportEmptyWorkingSet(t *testing.T) {
	fx := newOfferServiceFixture(t)

	_, err := fx.service.Export(context.Background(), "tok", domain.Identity{})
	if !errors.Is(err, domain.ErrEmptyWorkingSet) {
		t.Errorf("err = %v, want ErrEmptyWorkingSet", err)
	}
	if len(fx.artifacts.created) != 0 {
		t.Error("no artifact row should exist")
	}
}

func TestExportUploadFailureLeavesNoArtifactObject(t *testing.T) {
	fx := newOfferServiceFixture(t)
	ctx := context.Background()
	seedWorkingSet(t, fx, "tok")

	fx.objects.uploadErr = errors.New("bucket unreachable")

	if _, err := fx.service.Export(ctx, "tok", domain.Identity{}); err == nil {
		t.Fatal("expected export to fail")
	}
	if len(fx.objects.objects) != 0 {
		t.Error("object stored despite upload failure")
	}

	// The failed export must not consume the working set.
	rows, _ := fx.service.WorkingSets().Rows(ctx, "tok")
	if len(rows) == 0 {
		t.Error("working set lost after failed export")
	}
}

func TestExportCommitFailureCleansUpObject(t *testing.T) {
	fx := newOfferServiceFixture(t)
	ctx := context.Background()
	seedWorkingSet(t, fx, "tok")

	fx.tx.commitErr = errors.New("commit failed")

	if _, err := fx.service.Export(ctx, "tok", domain.Identity{}); err == nil {
		t.Fatal("expected export to fail")
	}
	if len(fx.objects.objects) != 0 {
		t.Errorf("orphan object left behind: %v", fx.objects.objects)
	}
	if len(fx.objects.removed) != 1 {
		t.Errorf("removed = %v, want one cleanup", fx.objects.removed)
	}
}

func TestSendArtifactDefaultsToArtifactRank(t *testing.T) {
	fx := newOfferServiceFixture(t)
	ctx := context.Background()
	seedWorkingSet(t, fx, "tok")

	artifact, err := fx.service.Export(ctx, "tok", domain.Identity{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	result, err := fx.service.SendArtifact(ctx, artifact.ID, domain.CustomerFilter{})
	if err != nil {
		t.Fatalf("SendArtifact: %v", err)
	}

	// Only the DIAMOND customer matches the artifact's default segment.
	if result.Sent != 1 || !result.AllSucceeded() {
		t.Errorf("result = %+v", result)
	}
	if len(fx.sender.sent) != 1 || fx.sender.sent[0].To != "one@shop.com" {
		t.Errorf("sent = %+v", fx.sender.sent)
	}
	if got := fx.sender.sent[0].AttachmentName; got != artifact.FileName {
		t.Errorf("attachment name = %q, want %q", got, artifact.FileName)
	}
	if len(fx.sender.sent[0].Attachment) == 0 {
		t.Error("attachment bytes missing")
	}
	if len(fx.emailLog.records) != 1 {
		t.Errorf("audit rows = %d, want 1", len(fx.emailLog.records))
	}
}

func TestSendArtifactNoMatchingCustomers(t *testing.T) {
	fx := newOfferServiceFixture(t)
	ctx := context.Background()
	seedWorkingSet(t, fx, "tok")

	artifact, err := fx.service.Export(ctx, "tok", domain.Identity{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if _, err := fx.service.SendArtifact(ctx, artifact.ID, domain.CustomerFilter{Rank: "PLATINUM"}); err == nil {
		t.Error("expected error when no customers match")
	}
	if len(fx.sender.sent) != 0 {
		t.Errorf("nothing should have been sent, got %d", len(fx.sender.sent))
	}
}
