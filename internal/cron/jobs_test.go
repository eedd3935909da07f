package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

func jobLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

type stubReconciler struct {
	removed int
	err     error
	calls   int
}

func (s *stubReconciler) ReconcilePlacements(context.Context) (int, error) {
	s.calls++
	return s.removed, s.err
}

func TestReconcilePlacementsJob(t *testing.T) {
	reconciler := &stubReconciler{removed: 3}
	job, err := NewReconcilePlacementsJob(ReconcilePlacementsJobParams{
		Logger: jobLogger(),
		Racks:  reconciler,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "reconcile-placements" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if reconciler.calls != 1 {
		t.Fatalf("expected one sweep, got %d", reconciler.calls)
	}

	reconciler.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep failure to surface")
	}
}

type stubCleaner struct {
	deleted int64
	gotNow  time.Time
}

func (s *stubCleaner) CleanupExpired(_ context.Context, now time.Time) (int64, error) {
	s.gotNow = now
	return s.deleted, nil
}

func TestActivityRetentionJob(t *testing.T) {
	cleaner := &stubCleaner{deleted: 12}
	job, err := NewActivityRetentionJob(ActivityRetentionJobParams{
		Logger:  jobLogger(),
		History: cleaner,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if cleaner.gotNow.IsZero() {
		t.Fatal("expected cleanup to receive the current time")
	}
}

type stubOutboxRepo struct {
	cutoff  time.Time
	deleted int64
}

func (s *stubOutboxRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, nil
}

func TestOutboxRetentionJobCutoff(t *testing.T) {
	repo := &stubOutboxRepo{deleted: 4}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     jobLogger(),
		Repository: repo,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := fixed.Add(-7 * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
}
