package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

type fakeSweepRepo struct {
	batches   [][]models.Subscription
	updates   []uuid.UUID
	updateErr map[uuid.UUID]error
}

func (f *fakeSweepRepo) ListExpiredActive(_ context.Context, _ time.Time, _ int) ([]models.Subscription, error) {
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeSweepRepo) UpdateStatusWithTx(_ *gorm.DB, id uuid.UUID, _ enums.SubscriptionStatus) error {
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.updates = append(f.updates, id)
	return nil
}

type fakeSweepRecorder struct {
	entries []auditlog.Entry
}

func (f *fakeSweepRecorder) Record(_ context.Context, entry auditlog.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeSweepTxRunner struct{}

func (fakeSweepTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func expiredSub(expiry time.Time) models.Subscription {
	return models.Subscription{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		PairID:     uuid.New(),
		Status:     enums.SubscriptionStatusActive,
		ExpiryDate: &expiry,
	}
}

func newExpiryJob(t *testing.T, repo *fakeSweepRepo, audit *fakeSweepRecorder, limit int) *subscriptionExpiryJob {
	t.Helper()
	jobIface, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:         fakeSweepTxRunner{},
		Repo:       repo,
		Audit:      audit,
		BatchLimit: limit,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionExpiryJob: %v", err)
	}
	job, ok := jobIface.(*subscriptionExpiryJob)
	if !ok {
		t.Fatalf("expected subscriptionExpiryJob, got %T", jobIface)
	}
	job.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return job
}

func TestExpirySweepMarksRowsAndAuditsEach(t *testing.T) {
	past := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.Subscription{expiredSub(past), expiredSub(past)}
	repo := &fakeSweepRepo{batches: [][]models.Subscription{rows}}
	audit := &fakeSweepRecorder{}
	job := newExpiryJob(t, repo, audit, 10)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(repo.updates) != 2 {
		t.Fatalf("expected 2 status updates, got %d", len(repo.updates))
	}
	if len(audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.Action != "subscription.expire" {
		t.Fatalf("unexpected action %q", entry.Action)
	}
	if entry.ActorID != sweepActorID {
		t.Fatalf("expected sweep actor, got %s", entry.ActorID)
	}
	if entry.EntityID == nil || *entry.EntityID != rows[0].ID {
		t.Fatalf("audit entry not tied to subscription")
	}
}

func TestExpirySweepDrainsFullBatches(t *testing.T) {
	past := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeSweepRepo{batches: [][]models.Subscription{
		{expiredSub(past), expiredSub(past)},
		{expiredSub(past)},
	}}
	audit := &fakeSweepRecorder{}
	job := newExpiryJob(t, repo, audit, 2)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(repo.updates) != 3 {
		t.Fatalf("expected 3 updates across batches, got %d", len(repo.updates))
	}
}

func TestExpirySweepContinuesPastFailedRow(t *testing.T) {
	past := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bad := expiredSub(past)
	good := expiredSub(past)
	repo := &fakeSweepRepo{
		batches:   [][]models.Subscription{{bad, good}},
		updateErr: map[uuid.UUID]error{bad.ID: errors.New("deadlock")},
	}
	audit := &fakeSweepRecorder{}
	job := newExpiryJob(t, repo, audit, 10)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected combined error for failed row")
	}
	if len(repo.updates) != 1 {
		t.Fatalf("expected the good row updated, got %d updates", len(repo.updates))
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(audit.entries))
	}
}
