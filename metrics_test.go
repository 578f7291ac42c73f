package main

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStoreDrivesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newTrackerMetrics(reg)
	store := newEntityStore(20, &recordingNotifier{}, metrics)
	now := time.Now()

	if err := store.upsert("u1", "Unit 1", sampleAt(-7.63, 111.53, now)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.upsert("u2", "Unit 2", sampleAt(-7.64, 111.54, now)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_ = store.upsert("u3", "Unit 3", sampleAt(math.NaN(), 111.53, now))

	if got := testutil.ToFloat64(metrics.updatesApplied); got != 2 {
		t.Fatalf("tracker_updates_applied_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.updatesRejected); got != 1 {
		t.Fatalf("tracker_updates_rejected_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.trackedEntities); got != 2 {
		t.Fatalf("tracker_entities = %v, want 2", got)
	}

	store.remove("u1")
	if got := testutil.ToFloat64(metrics.trackedEntities); got != 1 {
		t.Fatalf("tracker_entities after remove = %v, want 1", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *trackerMetrics
	m.updateApplied()
	m.updateRejected()
	m.broadcastSent()
	m.setTrackedEntities(1)
	m.setConnectedViewers(1)
}
