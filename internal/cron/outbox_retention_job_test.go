package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quotehub/quotehub-backend/pkg/logger"
)

type fakeEventPruner struct {
	lastCutoff time.Time
	deleted    int64
	err        error
	called     int
}

func (f *fakeEventPruner) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}

func TestOutboxRetentionJobUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	pruner := &fakeEventPruner{deleted: 7}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: pruner,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expected := now.Add(-7 * 24 * time.Hour)
	if !pruner.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, pruner.lastCutoff)
	}
}

func TestOutboxRetentionJobDefaultsRetention(t *testing.T) {
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: &fakeEventPruner{},
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	if job.retention != outboxRetentionDays {
		t.Fatalf("expected default retention %d, got %d", outboxRetentionDays, job.retention)
	}
}

func TestOutboxRetentionJobPropagatesErrors(t *testing.T) {
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: &fakeEventPruner{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
