package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nahidhasan/banglarag/internal/config"
)

func newTestOrchestrator(queueSize int) *Orchestrator {
	cfg := config.Load()
	cfg.MaxQueueSize = queueSize
	cfg.WorkerCount = 1
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrchestrator(cfg, &fakeEmbedder{}, newFakeStore(), log)
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := newTestOrchestrator(4)
	o.Start(context.Background())
	o.Stop()

	job := &Job{ID: NewJobID(), Filename: "late.txt", Status: StatusQueued, UpdatedAt: time.Now()}
	err := o.Submit(job)
	if err == nil {
		t.Fatal("expected Submit to fail after Stop")
	}
	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("job status = %q, want %q", got, StatusFailed)
	}
}

func TestOrchestrator_StopTwice(t *testing.T) {
	o := newTestOrchestrator(4)
	o.Start(context.Background())
	o.Stop()
	// A second Stop must be a no-op, not a double close.
	o.Stop()
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Workers never started, so the queue only drains on Stop.
	o := newTestOrchestrator(1)

	first := &Job{ID: NewJobID(), Filename: "a.txt", Status: StatusQueued, UpdatedAt: time.Now()}
	if err := o.Submit(first); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	second := &Job{ID: NewJobID(), Filename: "b.txt", Status: StatusQueued, UpdatedAt: time.Now()}
	if err := o.Submit(second); err == nil {
		t.Fatal("expected Submit to fail on a full queue")
	}
	if got := second.Snapshot().Status; got != StatusFailed {
		t.Errorf("job status = %q, want %q", got, StatusFailed)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("queue depth = %d, want 1", o.QueueDepth())
	}
}
