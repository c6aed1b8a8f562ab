package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManagerWithCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithRegistry(reg),
		WithNamespace("test"),
		WithSubsystem("engine"),
		WithHistogramBuckets([]float64{10, 50, 100}),
	)
	if m == nil {
		t.Fatal("manager is nil")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no metric families registered")
	}
}

func TestPackageLevelRecorders(t *testing.T) {
	// Recorders must never panic regardless of call order.
	RecordReportScored(82)
	RecordReportRejected()
	RecordReportDropped()
	UpdateQueueDepth(3)
	RecordQueueAdmission()
	RecordStatusTransition("IN_PROGRESS")
	UpdateInventoryAvailable("stretcher", 12)
	RecordReservation()
	RecordRelease()
	RecordAlert("LOW")
	RecordMissionAllocated("ALLOCATED")
	RecordShortfall("INSUFFICIENT_STOCK")
	RecordMissionReleased()
	UpdateIntakeQueueSize(7)
	UpdateWorkerCount(4)
	RecordErrorByComponent("ledger", "unknown_kind")

	if Registry() == nil {
		t.Fatal("registry is nil")
	}
}
