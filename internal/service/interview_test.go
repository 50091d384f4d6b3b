package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
	"github.com/msomdec/recruit-dashboard/internal/testfixtures"
)

var interviewer = domain.User{Name: "Rita Recruiter", Email: "rita@corp.test"}

type countingObserver struct {
	mu     sync.Mutex
	counts map[domain.Status]int
	calls  int
}

func (o *countingObserver) SetRecordCounts(counts map[domain.Status]int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts = counts
	o.calls++
}

func newTestStore(t *testing.T, opts ...service.InterviewStoreOption) (*service.InterviewStore, *testfixtures.Backend) {
	t.Helper()
	backend := testfixtures.NewBackend()
	clock := testfixtures.NewClock(time.Time{})
	opts = append([]service.InterviewStoreOption{service.WithClock(clock.Now)}, opts...)
	return service.NewInterviewStore(backend, opts...), backend
}

func validSchedule() domain.ScheduleRequest {
	return domain.ScheduleRequest{
		CandidateName:  "John Doe",
		CandidateEmail: "john@example.com",
		CandidatePhone: "555-123-4567",
		Date:           testfixtures.ReferenceTime().Add(48 * time.Hour),
		JobDescription: "Senior React Developer position requiring 5+ years of experience.",
	}
}

func TestQuestionPayload(t *testing.T) {
	got := service.QuestionPayload(domain.QuestionRequest{
		JobTitle:       "Go Developer",
		JobDescription: "Build services",
		Skills:         " Go, SQL ",
	})
	want := "Job Title: Go Developer\nJob Description: Build services\nSkills: Go, SQL"
	if got != want {
		t.Fatalf("payload mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestGenerateQuestions(t *testing.T) {
	t.Run("returns numbered questions", func(t *testing.T) {
		store, backend := newTestStore(t)
		backend.Questions = []domain.Question{{Question: "Why Go?"}, {ID: "x", Question: "Why SQL?"}}

		qs, err := store.GenerateQuestions(context.Background(), domain.QuestionRequest{
			JobTitle:       "Backend Engineer",
			JobDescription: "Design and operate Go services on Kubernetes.",
		})
		if err != nil {
			t.Fatalf("GenerateQuestions: %v", err)
		}
		if len(qs) != 2 || qs[0].ID != "1" || qs[1].ID != "x" {
			t.Fatalf("unexpected questions %+v", qs)
		}
		if !strings.HasPrefix(backend.Payloads[0], "Job Title: Backend Engineer\nJob Description: ") {
			t.Fatalf("unexpected payload %q", backend.Payloads[0])
		}
	})

	t.Run("short description makes no call", func(t *testing.T) {
		store, backend := newTestStore(t)

		_, err := store.GenerateQuestions(context.Background(), domain.QuestionRequest{JobDescription: "too short"})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if backend.CallCount("generate_questions") != 0 {
			t.Fatal("expected no backend call")
		}
	})

	t.Run("backend failure surfaces message", func(t *testing.T) {
		store, backend := newTestStore(t)
		backend.SetErr("generate_questions", &domain.BackendError{Op: "generate_questions", StatusCode: 503, Message: "Model overloaded"})

		_, err := store.GenerateQuestions(context.Background(), domain.QuestionRequest{
			JobDescription: "Design and operate Go services on Kubernetes.",
		})
		if got := domain.UserMessage(err, "fallback"); got != "Model overloaded" {
			t.Fatalf("expected backend message, got %q (err %v)", got, err)
		}
	})
}

func TestScheduleInterview(t *testing.T) {
	t.Run("creates scheduled record with links", func(t *testing.T) {
		store, _ := newTestStore(t)

		rec, err := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
		if err != nil {
			t.Fatalf("ScheduleInterview: %v", err)
		}
		if rec.Status != domain.StatusScheduled {
			t.Fatalf("expected scheduled, got %s", rec.Status)
		}
		if rec.InterviewerLink == "" || rec.CandidateLink == "" {
			t.Fatalf("expected both links, got %+v", rec)
		}
		if rec.ID != "room-1" {
			t.Fatalf("expected record id to be the room id, got %q", rec.ID)
		}
		if len(rec.Questions) != 2 {
			t.Fatalf("expected generated questions attached, got %d", len(rec.Questions))
		}

		got := store.GetInterviewByID(rec.ID)
		if got != rec {
			t.Fatal("expected lookup to return the stored pointer")
		}
		if got.CandidateName != "John Doe" {
			t.Fatalf("expected John Doe, got %q", got.CandidateName)
		}
	})

	t.Run("validation errors per field", func(t *testing.T) {
		store, backend := newTestStore(t)
		req := domain.ScheduleRequest{
			CandidateName:  "J",
			CandidateEmail: "not-an-email",
			CandidatePhone: "123",
			Date:           testfixtures.ReferenceTime().Add(-48 * time.Hour),
			JobDescription: "short",
		}

		_, err := store.ScheduleInterview(context.Background(), interviewer, req)
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"candidateName", "candidateEmail", "candidatePhone", "date", "jobDescription"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected error for %s, got %v", field, vErr.FieldErrors)
			}
		}
		if backend.CallCount("generate_join_link") != 0 {
			t.Fatal("expected no backend call")
		}
	})

	t.Run("earlier today is allowed", func(t *testing.T) {
		store, _ := newTestStore(t)
		req := validSchedule()
		req.Date = testfixtures.ReferenceTime().Add(-time.Hour)

		if _, err := store.ScheduleInterview(context.Background(), interviewer, req); err != nil {
			t.Fatalf("expected today to be accepted, got %v", err)
		}
	})

	t.Run("incomplete room is rejected", func(t *testing.T) {
		store, backend := newTestStore(t)
		backend.JoinLink = &domain.JoinLink{RoomID: "room-9", InterviewerLink: "https://meet.test/i"}

		_, err := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
		if !errors.Is(err, domain.ErrBackend) {
			t.Fatalf("expected ErrBackend, got %v", err)
		}
		if len(store.List()) != 0 {
			t.Fatal("expected no record to be added")
		}
	})

	t.Run("reused room is rejected", func(t *testing.T) {
		store, backend := newTestStore(t)
		backend.JoinLink = &domain.JoinLink{
			RoomID:          "room-dup",
			InterviewerLink: "https://meet.test/i",
			CandidateLink:   "https://meet.test/c",
		}

		first, err := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
		if err != nil {
			t.Fatalf("first ScheduleInterview: %v", err)
		}
		second := validSchedule()
		second.CandidateName = "Jane Roe"
		second.CandidateEmail = "jane@example.com"
		if _, err := store.ScheduleInterview(context.Background(), interviewer, second); !errors.Is(err, domain.ErrBackend) {
			t.Fatalf("expected ErrBackend for reused room, got %v", err)
		}

		if n := len(store.List()); n != 1 {
			t.Fatalf("expected 1 record, got %d", n)
		}
		if got := store.GetInterviewByID("room-dup"); got != first || got.CandidateName != "John Doe" {
			t.Fatalf("expected first record to stay addressable, got %+v", got)
		}
	})
}

func TestSubmitFeedback(t *testing.T) {
	fb := domain.Feedback{CommunicationRating: 4, TechnicalRating: 5, Notes: "Clear and thorough answers."}

	t.Run("completes the record", func(t *testing.T) {
		store, backend := newTestStore(t)
		rec, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())

		updated, err := store.SubmitFeedback(context.Background(), rec.ID, fb)
		if err != nil {
			t.Fatalf("SubmitFeedback: %v", err)
		}
		if updated.Status != domain.StatusCompleted {
			t.Fatalf("expected completed, got %s", updated.Status)
		}
		if *updated.Feedback != fb {
			t.Fatalf("expected feedback %+v, got %+v", fb, *updated.Feedback)
		}
		if updated.Report != nil {
			t.Fatal("feedback must not generate a report")
		}
		if backend.CallCount("generate_report") != 0 {
			t.Fatal("feedback must not call the backend")
		}
		if rec.Status != domain.StatusScheduled {
			t.Fatal("previously returned record must not be mutated")
		}
		if store.Current() != updated {
			t.Fatal("expected updated record to be current")
		}
	})

	t.Run("twice keeps completed and overwrites feedback", func(t *testing.T) {
		store, _ := newTestStore(t)
		rec, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())

		store.SubmitFeedback(context.Background(), rec.ID, fb)
		second := domain.Feedback{CommunicationRating: 2, TechnicalRating: 3, Notes: "Second opinion after review."}
		updated, err := store.SubmitFeedback(context.Background(), rec.ID, second)
		if err != nil {
			t.Fatalf("second SubmitFeedback: %v", err)
		}
		if updated.Status != domain.StatusCompleted || *updated.Feedback != second {
			t.Fatalf("unexpected record after second feedback %+v", updated)
		}
	})

	t.Run("unknown id leaves list untouched", func(t *testing.T) {
		store, _ := newTestStore(t)
		rec, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
		before := store.List()

		_, err := store.SubmitFeedback(context.Background(), "missing", fb)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		after := store.List()
		if len(after) != len(before) || after[0] != before[0] || after[0] != rec {
			t.Fatal("expected list to be unchanged")
		}
	})

	t.Run("rejects out of range ratings", func(t *testing.T) {
		store, _ := newTestStore(t)
		rec, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())

		_, err := store.SubmitFeedback(context.Background(), rec.ID, domain.Feedback{CommunicationRating: 0, TechnicalRating: 6, Notes: "short"})
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) || len(vErr.FieldErrors) != 3 {
			t.Fatalf("expected three field errors, got %v", err)
		}
		if store.GetInterviewByID(rec.ID).Status != domain.StatusScheduled {
			t.Fatal("invalid feedback must not change the record")
		}
	})
}

func TestGenerateReport(t *testing.T) {
	t.Run("attaches report and keeps feedback", func(t *testing.T) {
		store, _ := newTestStore(t)
		rec, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
		fb := domain.Feedback{CommunicationRating: 3, TechnicalRating: 4, Notes: "Solid fundamentals overall."}
		store.SubmitFeedback(context.Background(), rec.ID, fb)

		updated, err := store.GenerateReport(context.Background(), rec.ID)
		if err != nil {
			t.Fatalf("GenerateReport: %v", err)
		}
		if updated.Report == nil || updated.Report.Summary == "" {
			t.Fatalf("expected report, got %+v", updated.Report)
		}
		if updated.Feedback == nil || *updated.Feedback != fb {
			t.Fatal("expected feedback to be preserved")
		}
		if updated.Status != domain.StatusCompleted {
			t.Fatalf("expected completed, got %s", updated.Status)
		}
		if store.Current() != updated {
			t.Fatal("expected report record to be current")
		}
	})

	t.Run("unknown id makes no call", func(t *testing.T) {
		store, backend := newTestStore(t)

		_, err := store.GenerateReport(context.Background(), "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if backend.CallCount("generate_report") != 0 {
			t.Fatal("expected no backend call")
		}
	})

	t.Run("backend failure leaves record unchanged", func(t *testing.T) {
		store, backend := newTestStore(t)
		rec, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
		backend.SetErr("generate_report", &domain.BackendError{Op: "generate_report", StatusCode: 500, Message: "Room has no transcript"})

		if _, err := store.GenerateReport(context.Background(), rec.ID); !errors.Is(err, domain.ErrBackend) {
			t.Fatalf("expected ErrBackend, got %v", err)
		}
		if store.GetInterviewByID(rec.ID) != rec {
			t.Fatal("expected record to be unchanged")
		}
	})
}

func TestPendingOperations_Overlap(t *testing.T) {
	store, backend := newTestStore(t)
	first, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
	second, _ := store.ScheduleInterview(context.Background(), interviewer, validSchedule())

	gate := make(chan struct{})
	backend.Gate = gate

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.GenerateReport(context.Background(), first.ID)
	}()

	waitFor(t, func() bool { return store.IsPending(service.OpGenerateReport, first.ID) })

	// A fast operation finishing meanwhile must not clear the slow one.
	if _, err := store.SubmitFeedback(context.Background(), second.ID, domain.Feedback{
		CommunicationRating: 5, TechnicalRating: 5, Notes: "Excellent all around.",
	}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if !store.IsPending(service.OpGenerateReport, first.ID) {
		t.Fatal("expected report generation to still be pending")
	}
	if store.IsPending(service.OpGenerateReport, second.ID) {
		t.Fatal("expected no pending report for the second record")
	}

	close(gate)
	wg.Wait()

	if len(store.Pending()) != 0 {
		t.Fatalf("expected no pending operations, got %+v", store.Pending())
	}
}

func TestInterviewStore_ResetAndObserver(t *testing.T) {
	obs := &countingObserver{}
	store, _ := newTestStore(t, service.WithStatusObserver(obs))
	store.Seed(testfixtures.SampleRecords()...)

	if obs.counts[domain.StatusScheduled] != 1 || obs.counts[domain.StatusCompleted] != 1 {
		t.Fatalf("unexpected counts after seed %v", obs.counts)
	}
	if err := store.SetCurrent("2"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if err := store.SetCurrent("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	store.Reset()

	if len(store.List()) != 0 || store.Current() != nil {
		t.Fatal("expected empty store after reset")
	}
	if obs.counts[domain.StatusCompleted] != 0 {
		t.Fatalf("expected zero counts after reset, got %v", obs.counts)
	}
}

func TestInterviewStore_ObserverSeesFinalCounts(t *testing.T) {
	obs := &countingObserver{}
	store, _ := newTestStore(t, service.WithStatusObserver(obs))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := store.ScheduleInterview(context.Background(), interviewer, validSchedule())
			if err != nil {
				t.Errorf("ScheduleInterview: %v", err)
				return
			}
			fb := domain.Feedback{CommunicationRating: 4, TechnicalRating: 4, Notes: "Steady answers throughout."}
			if _, err := store.SubmitFeedback(context.Background(), rec.ID, fb); err != nil {
				t.Errorf("SubmitFeedback: %v", err)
			}
		}()
	}
	wg.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.counts[domain.StatusCompleted] != n || obs.counts[domain.StatusScheduled] != 0 {
		t.Fatalf("expected %d completed and 0 scheduled, got %v", n, obs.counts)
	}
	if obs.calls != 2*n {
		t.Fatalf("expected %d observer calls, got %d", 2*n, obs.calls)
	}
}

func TestInterviewStore_NowUsesClock(t *testing.T) {
	store, _ := newTestStore(t)
	if got := store.Now(); !got.Equal(testfixtures.ReferenceTime()) {
		t.Fatalf("expected store clock %v, got %v", testfixtures.ReferenceTime(), got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
