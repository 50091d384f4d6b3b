package service_test

import (
	"testing"

	"github.com/msomdec/recruit-dashboard/internal/service"
)

func TestOperationTracker(t *testing.T) {
	tracker := service.NewOperationTracker()

	slow, doneSlow := tracker.Begin(service.OpGenerateReport, "room-1")
	fast, doneFast := tracker.Begin(service.OpSubmitFeedback, "room-2")
	if slow.ID == fast.ID || slow.ID == "" {
		t.Fatalf("expected distinct tokens, got %q and %q", slow.ID, fast.ID)
	}
	if len(tracker.Pending()) != 2 {
		t.Fatalf("expected two pending, got %d", len(tracker.Pending()))
	}

	doneFast()
	doneFast()

	if !tracker.IsPending(service.OpGenerateReport, "room-1") {
		t.Fatal("finishing one operation must not clear another")
	}
	if !tracker.IsPending(service.OpGenerateReport, "") {
		t.Fatal("empty record id should match any record")
	}
	if tracker.IsPending(service.OpSubmitFeedback, "") {
		t.Fatal("expected feedback to be done")
	}

	doneSlow()
	if len(tracker.Pending()) != 0 {
		t.Fatal("expected nothing pending")
	}
}

func TestOperationTracker_Reset(t *testing.T) {
	tracker := service.NewOperationTracker()
	_, done := tracker.Begin(service.OpLogin, "")

	tracker.Reset()
	if len(tracker.Pending()) != 0 {
		t.Fatal("expected reset to clear pending")
	}
	done()
	if len(tracker.Pending()) != 0 {
		t.Fatal("late done after reset must be harmless")
	}
}
