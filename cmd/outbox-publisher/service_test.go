package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

type stubDB struct{}

func (stubDB) Ping(context.Context) error { return nil }

func (stubDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	pending   []models.ChangeEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (r *stubRepo) FetchPendingTx(_ *gorm.DB, _, _ int) ([]models.ChangeEvent, error) {
	events := r.pending
	r.pending = nil
	return events, nil
}

func (r *stubRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *stubRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *stubRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	r.terminal = append(r.terminal, id)
	return nil
}

type stubResult struct {
	err error
}

func (s stubResult) Get(context.Context) (string, error) {
	return "server-id", s.err
}

type stubPublisher struct {
	err       error
	published []*gcppubsub.Message
}

func (p *stubPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.published = append(p.published, msg)
	return stubResult{err: p.err}
}

func newTestService(t *testing.T, repo *stubRepo, pub *stubPublisher, maxAttempts int) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Outbox = config.OutboxConfig{BatchSize: 10, PollIntervalMS: 50, MaxAttempts: maxAttempts}
	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         stubDB{},
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func pendingEvent(attempts int) models.ChangeEvent {
	return models.ChangeEvent{
		ID:           uuid.New(),
		Table:        enums.TableRacks,
		Action:       enums.ChangeInsert,
		EntityID:     uuid.New(),
		Payload:      []byte(`{"version":1}`),
		Status:       enums.OutboxPending,
		AttemptCount: attempts,
		OccurredAt:   time.Now(),
	}
}

func TestProcessBatchPublishesPending(t *testing.T) {
	event := pendingEvent(0)
	repo := &stubRepo{pending: []models.ChangeEvent{event}}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub, 10)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 publish got %d", len(pub.published))
	}
	if got := pub.published[0].Attributes["table"]; got != "racks" {
		t.Fatalf("expected racks table attribute got %q", got)
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event %s marked published", event.ID)
	}
}

func TestProcessBatchMarksRetryableFailure(t *testing.T) {
	event := pendingEvent(0)
	repo := &stubRepo{pending: []models.ChangeEvent{event}}
	pub := &stubPublisher{err: errors.New("publish boom")}
	svc := newTestService(t, repo, pub, 10)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected event %s marked failed", event.ID)
	}
	if len(repo.terminal) != 0 {
		t.Fatal("expected no terminal marks")
	}
}

func TestProcessBatchParksAtMaxAttempts(t *testing.T) {
	event := pendingEvent(9)
	repo := &stubRepo{pending: []models.ChangeEvent{event}}
	pub := &stubPublisher{err: errors.New("publish boom")}
	svc := newTestService(t, repo, pub, 10)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected event %s parked", event.ID)
	}
	if len(repo.failed) != 0 {
		t.Fatal("expected no retryable marks")
	}
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubPublisher{}, 10)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}
