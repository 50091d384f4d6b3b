package domain

import (
	"context"
	"time"
)

// Status is the lifecycle state of an interview record.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Question is a single generated interview question.
type Question struct {
	ID         string
	Question   string
	Category   string
	Difficulty string
}

// Feedback is the interviewer's assessment of a candidate.
type Feedback struct {
	CommunicationRating int
	TechnicalRating     int
	Notes               string
}

// Average returns the mean of the two ratings.
func (f Feedback) Average() float64 {
	return float64(f.CommunicationRating+f.TechnicalRating) / 2
}

// Report is the analysis produced by the recruiting backend once an
// interview has taken place.
type Report struct {
	Strengths      []string
	Weaknesses     []string
	Summary        string
	AIAnalysis     string
	Recommendation string
	Score          float64
}

// Record is a single interview's scheduling, feedback, and report data.
// Records handed out by the interview store are never mutated; every change
// produces a new Record.
type Record struct {
	ID              string
	CandidateName   string
	CandidateEmail  string
	CandidatePhone  string
	Date            time.Time
	Status          Status
	JobDescription  string
	ResumeURL       string
	InterviewerLink string
	CandidateLink   string
	Questions       []Question
	Feedback        *Feedback
	Report          *Report
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	if r.Questions != nil {
		c.Questions = append([]Question(nil), r.Questions...)
	}
	if r.Feedback != nil {
		fb := *r.Feedback
		c.Feedback = &fb
	}
	if r.Report != nil {
		rep := *r.Report
		rep.Strengths = append([]string(nil), r.Report.Strengths...)
		rep.Weaknesses = append([]string(nil), r.Report.Weaknesses...)
		c.Report = &rep
	}
	return &c
}

// QuestionRequest holds the inputs for question generation.
type QuestionRequest struct {
	JobTitle       string
	JobDescription string
	Experience     string
	Skills         string
}

// ScheduleRequest holds the inputs for scheduling an interview.
type ScheduleRequest struct {
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	Date           time.Time
	JobDescription string
	ResumeURL      string
}

// JoinLinkRequest is sent to the backend to create a video call room.
type JoinLinkRequest struct {
	InterviewerName  string
	InterviewerEmail string
	CandidateName    string
	CandidateEmail   string
	CandidatePhone   string
	ScheduledAt      time.Time
	JobDescription   string
}

// JoinLink is the backend's answer to a JoinLinkRequest.
type JoinLink struct {
	RoomID          string
	InterviewerLink string
	CandidateLink   string
	Questions       []Question
}

// InterviewBackend is the set of remote capabilities the interview store
// relies on.
type InterviewBackend interface {
	GenerateQuestions(ctx context.Context, payload string) ([]Question, error)
	GenerateJoinLink(ctx context.Context, req JoinLinkRequest) (*JoinLink, error)
	GenerateReport(ctx context.Context, roomID string) (*Report, error)
}
