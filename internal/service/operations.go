package service

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OperationKind names a store operation that can be in flight.
type OperationKind string

const (
	OpGenerateQuestions OperationKind = "generate_questions"
	OpScheduleInterview OperationKind = "schedule_interview"
	OpSubmitFeedback    OperationKind = "submit_feedback"
	OpGenerateReport    OperationKind = "generate_report"
	OpLogin             OperationKind = "login"
	OpRegister          OperationKind = "register"
)

// Operation is the token for one in-flight call. Each call owns its token,
// so overlapping calls never clear each other's pending state.
type Operation struct {
	ID        string
	Kind      OperationKind
	RecordID  string
	StartedAt time.Time
}

// OperationTracker records in-flight operations.
type OperationTracker struct {
	mu      sync.Mutex
	pending map[string]Operation
	now     func() time.Time
}

// NewOperationTracker creates an empty tracker.
func NewOperationTracker() *OperationTracker {
	return &OperationTracker{pending: make(map[string]Operation), now: time.Now}
}

// Begin registers a new in-flight operation and returns a func that marks it
// done. The returned func is safe to call more than once.
func (t *OperationTracker) Begin(kind OperationKind, recordID string) (Operation, func()) {
	op := Operation{
		ID:        uuid.NewString(),
		Kind:      kind,
		RecordID:  recordID,
		StartedAt: t.now(),
	}

	t.mu.Lock()
	t.pending[op.ID] = op
	t.mu.Unlock()

	var once sync.Once
	return op, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.pending, op.ID)
			t.mu.Unlock()
		})
	}
}

// Pending returns the in-flight operations, oldest first.
func (t *OperationTracker) Pending() []Operation {
	t.mu.Lock()
	ops := make([]Operation, 0, len(t.pending))
	for _, op := range t.pending {
		ops = append(ops, op)
	}
	t.mu.Unlock()

	slices.SortFunc(ops, func(a, b Operation) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return ops
}

// IsPending reports whether an operation of kind is in flight. An empty
// recordID matches any record.
func (t *OperationTracker) IsPending(kind OperationKind, recordID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, op := range t.pending {
		if op.Kind == kind && (recordID == "" || op.RecordID == recordID) {
			return true
		}
	}
	return false
}

// Reset drops every pending operation.
func (t *OperationTracker) Reset() {
	t.mu.Lock()
	t.pending = make(map[string]Operation)
	t.mu.Unlock()
}
