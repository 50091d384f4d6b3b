package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

const interviewServiceName = "interview_store"

// StatusObserver is told the number of records per status after every change.
type StatusObserver interface {
	SetRecordCounts(counts map[domain.Status]int)
}

// InterviewStore owns the in-memory list of interview records and proxies
// question, join link and report generation to the recruiting backend. It is
// created once per process and shared by every handler.
type InterviewStore struct {
	backend  domain.InterviewBackend
	ops      *OperationTracker
	logger   *slog.Logger
	now      func() time.Time
	observer StatusObserver

	mu        sync.RWMutex
	records   []*domain.Record
	currentID string
}

// InterviewStoreOption configures an InterviewStore.
type InterviewStoreOption func(*InterviewStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) InterviewStoreOption {
	return func(s *InterviewStore) { s.now = now }
}

// WithLogger sets the base logger used when the context carries none.
func WithLogger(logger *slog.Logger) InterviewStoreOption {
	return func(s *InterviewStore) { s.logger = logger }
}

// WithStatusObserver reports status counts to o after every change.
func WithStatusObserver(o StatusObserver) InterviewStoreOption {
	return func(s *InterviewStore) { s.observer = o }
}

// NewInterviewStore creates an empty store backed by backend.
func NewInterviewStore(backend domain.InterviewBackend, opts ...InterviewStoreOption) *InterviewStore {
	s := &InterviewStore{
		backend: backend,
		ops:     NewOperationTracker(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now reports the current time on the store's clock. Handlers validate
// schedule dates against it so both layers agree on "today".
func (s *InterviewStore) Now() time.Time {
	return s.now()
}

// QuestionPayload combines the question form fields into the single
// description the backend expects.
func QuestionPayload(req domain.QuestionRequest) string {
	var lines []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add("Job Title", req.JobTitle)
	add("Job Description", req.JobDescription)
	add("Experience", req.Experience)
	add("Skills", req.Skills)
	return strings.Join(lines, "\n")
}

// GenerateQuestions asks the backend for questions matching the job.
func (s *InterviewStore) GenerateQuestions(ctx context.Context, req domain.QuestionRequest) (questions []domain.Question, err error) {
	logger := serviceLogger(ctx, s.logger, interviewServiceName, "generate_questions")
	defer func() { logOutcome(ctx, logger, err, "questions", len(questions)) }()

	if err = ValidateQuestionRequest(req); err != nil {
		return nil, err
	}

	_, done := s.ops.Begin(OpGenerateQuestions, "")
	defer done()

	questions, err = s.backend.GenerateQuestions(ctx, QuestionPayload(req))
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	return numberQuestions(questions), nil
}

// ScheduleInterview creates a room for the interview and appends the new
// record, identified by the backend room id.
func (s *InterviewStore) ScheduleInterview(ctx context.Context, interviewer domain.User, req domain.ScheduleRequest) (record *domain.Record, err error) {
	logger := serviceLogger(ctx, s.logger, interviewServiceName, "schedule_interview", "interviewer", interviewer.Email)
	defer func() {
		attrs := []any{}
		if record != nil {
			attrs = append(attrs, "record_id", record.ID)
		}
		logOutcome(ctx, logger, err, attrs...)
	}()

	if err = ValidateSchedule(req, s.now()); err != nil {
		return nil, err
	}

	_, done := s.ops.Begin(OpScheduleInterview, "")
	defer done()

	link, err := s.backend.GenerateJoinLink(ctx, domain.JoinLinkRequest{
		InterviewerName:  interviewer.Name,
		InterviewerEmail: interviewer.Email,
		CandidateName:    strings.TrimSpace(req.CandidateName),
		CandidateEmail:   strings.TrimSpace(req.CandidateEmail),
		CandidatePhone:   strings.TrimSpace(req.CandidatePhone),
		ScheduledAt:      req.Date,
		JobDescription:   strings.TrimSpace(req.JobDescription),
	})
	if err != nil {
		return nil, fmt.Errorf("generate join link: %w", err)
	}
	if link.RoomID == "" || link.InterviewerLink == "" || link.CandidateLink == "" {
		return nil, &domain.BackendError{Op: "generate_join_link", Message: "The scheduling service returned an incomplete room."}
	}

	record = &domain.Record{
		ID:              link.RoomID,
		CandidateName:   strings.TrimSpace(req.CandidateName),
		CandidateEmail:  strings.TrimSpace(req.CandidateEmail),
		CandidatePhone:  strings.TrimSpace(req.CandidatePhone),
		Date:            req.Date,
		Status:          domain.StatusScheduled,
		JobDescription:  strings.TrimSpace(req.JobDescription),
		ResumeURL:       req.ResumeURL,
		InterviewerLink: link.InterviewerLink,
		CandidateLink:   link.CandidateLink,
		Questions:       numberQuestions(link.Questions),
	}

	s.mu.Lock()
	if s.find(record.ID) != nil {
		s.mu.Unlock()
		return nil, &domain.BackendError{Op: "generate_join_link", Message: "The scheduling service returned a room that is already in use."}
	}
	s.records = append(s.records, record)
	s.notifyLocked()
	s.mu.Unlock()

	return record, nil
}

// SubmitFeedback attaches feedback to the record and marks it completed.
// It does not generate a report; callers sequence GenerateReport themselves.
func (s *InterviewStore) SubmitFeedback(ctx context.Context, id string, fb domain.Feedback) (record *domain.Record, err error) {
	logger := serviceLogger(ctx, s.logger, interviewServiceName, "submit_feedback", "record_id", id)
	defer func() { logOutcome(ctx, logger, err) }()

	if err = ValidateFeedback(fb); err != nil {
		return nil, err
	}

	_, done := s.ops.Begin(OpSubmitFeedback, id)
	defer done()

	fb.Notes = strings.TrimSpace(fb.Notes)
	record, err = s.replace(id, func(r *domain.Record) {
		r.Status = domain.StatusCompleted
		r.Feedback = &fb
	})
	if err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	return record, nil
}

// GenerateReport fetches the backend's report for the record's room and
// attaches it.
func (s *InterviewStore) GenerateReport(ctx context.Context, id string) (record *domain.Record, err error) {
	logger := serviceLogger(ctx, s.logger, interviewServiceName, "generate_report", "record_id", id)
	defer func() { logOutcome(ctx, logger, err) }()

	if s.GetInterviewByID(id) == nil {
		return nil, fmt.Errorf("generate report: %w", domain.ErrNotFound)
	}

	_, done := s.ops.Begin(OpGenerateReport, id)
	defer done()

	report, err := s.backend.GenerateReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	record, err = s.replace(id, func(r *domain.Record) {
		r.Status = domain.StatusCompleted
		r.Report = report
	})
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return record, nil
}

// GetInterviewByID returns the stored record or nil.
func (s *InterviewStore) GetInterviewByID(id string) *domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(id)
}

// List returns the records in creation order.
func (s *InterviewStore) List() []*domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.Record(nil), s.records...)
}

// Current returns the record most recently given feedback, a report, or
// selected with SetCurrent. It returns nil when there is none.
func (s *InterviewStore) Current() *domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == "" {
		return nil
	}
	return s.find(s.currentID)
}

// SetCurrent selects the current record. An empty id clears it.
func (s *InterviewStore) SetCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.find(id) == nil {
		return domain.ErrNotFound
	}
	s.currentID = id
	return nil
}

// Pending returns the in-flight operations.
func (s *InterviewStore) Pending() []Operation {
	return s.ops.Pending()
}

// IsPending reports whether an operation of kind is in flight for recordID.
func (s *InterviewStore) IsPending(kind OperationKind, recordID string) bool {
	return s.ops.IsPending(kind, recordID)
}

// Seed appends records as-is. It is used to load demo data.
func (s *InterviewStore) Seed(records ...*domain.Record) {
	s.mu.Lock()
	s.records = append(s.records, records...)
	s.notifyLocked()
	s.mu.Unlock()
}

// Reset empties the store.
func (s *InterviewStore) Reset() {
	s.mu.Lock()
	s.records = nil
	s.currentID = ""
	s.notifyLocked()
	s.mu.Unlock()
	s.ops.Reset()
}

// replace swaps the record with id for an updated copy and makes it current.
func (s *InterviewStore) replace(id string, update func(*domain.Record)) (*domain.Record, error) {
	s.mu.Lock()
	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}

	updated := s.records[idx].Clone()
	update(updated)

	records := append([]*domain.Record(nil), s.records...)
	records[idx] = updated
	s.records = records
	s.currentID = id
	s.notifyLocked()
	s.mu.Unlock()

	return updated, nil
}

func (s *InterviewStore) find(id string) *domain.Record {
	for _, r := range s.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// notifyLocked publishes the per-status counts. The caller holds s.mu for
// writing, so snapshots reach the observer in mutation order.
func (s *InterviewStore) notifyLocked() {
	if s.observer == nil {
		return
	}
	counts := map[domain.Status]int{
		domain.StatusScheduled: 0,
		domain.StatusCompleted: 0,
		domain.StatusCancelled: 0,
	}
	for _, r := range s.records {
		counts[r.Status]++
	}
	s.observer.SetRecordCounts(counts)
}

func numberQuestions(qs []domain.Question) []domain.Question {
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		if q.ID == "" {
			q.ID = strconv.Itoa(i + 1)
		}
		out[i] = q
	}
	return out
}
