package llm

import (
	"testing"
	"time"
)

func TestCallStatsSnapshotPercentiles(t *testing.T) {
	stats := NewCallStats(time.Hour)
	stats.Record("chat", 100)
	stats.Record("chat", 200)
	stats.Record("chat", 300)
	stats.Record("chat", 400)
	stats.Record("chat", 500)

	snap := stats.Snapshot()["chat"]
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
}

func TestCallStatsIsolatesOperations(t *testing.T) {
	stats := NewCallStats(time.Hour)
	stats.Record("chat", 100)
	stats.Record("embedding", 50)

	snap := stats.Snapshot()
	if snap["chat"].Count != 1 || snap["embedding"].Count != 1 {
		t.Fatalf("expected one sample per op, got %+v", snap)
	}
	if snap["embedding"].MinMs != 50 {
		t.Errorf("expected embedding min=50, got %d", snap["embedding"].MinMs)
	}
}

func TestCallStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewCallStats(10 * time.Millisecond)
	stats.Record("chat", 100)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap["chat"].Count != 0 {
		t.Fatalf("expected expired samples pruned, got %d", snap["chat"].Count)
	}
}

func TestCallStatsClampsNegativeDuration(t *testing.T) {
	stats := NewCallStats(time.Hour)
	stats.Record("chat", -10)
	snap := stats.Snapshot()["chat"]
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
