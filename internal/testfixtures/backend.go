// Package testfixtures provides deterministic stand-ins for the recruiting
// backend, random sources and tickers.
package testfixtures

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

// Backend is an in-memory recruiting backend. It implements
// domain.Authenticator and domain.InterviewBackend. Each call is recorded,
// and a per-operation error can be injected.
type Backend struct {
	mu sync.Mutex

	users map[string]backendUser
	rooms int

	// Err, when set for an operation name, is returned instead of a result.
	Err map[string]error
	// Questions overrides the generated questions.
	Questions []domain.Question
	// Report overrides the generated report.
	Report *domain.Report
	// JoinLink overrides the generated join link.
	JoinLink *domain.JoinLink

	Calls    []string
	Payloads []string
	// Gate, when set, is received from before GenerateReport returns.
	Gate chan struct{}
}

type backendUser struct {
	name     string
	password string
}

// NewBackend returns a backend that knows the demo account
// demo@example.com / password123.
func NewBackend() *Backend {
	return &Backend{
		users: map[string]backendUser{
			"demo@example.com": {name: "Demo User", password: "password123"},
		},
		Err: make(map[string]error),
	}
}

func (b *Backend) record(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, op)
	return b.Err[op]
}

// SetErr makes op fail with err. A nil err clears it.
func (b *Backend) SetErr(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.Err, op)
		return
	}
	b.Err[op] = err
}

// CallCount returns how many times op was called.
func (b *Backend) CallCount(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (b *Backend) Authenticate(_ context.Context, email, password string) (*domain.User, error) {
	if err := b.record("authenticate"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[strings.ToLower(email)]
	if !ok || u.password != password {
		return nil, &domain.BackendError{Op: "authenticate", StatusCode: 401, Message: "Invalid credentials"}
	}
	return &domain.User{Name: u.name, Email: strings.ToLower(email)}, nil
}

func (b *Backend) Register(_ context.Context, req domain.RegisterRequest) error {
	if err := b.record("register"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email := strings.ToLower(req.Email)
	if _, ok := b.users[email]; ok {
		return &domain.BackendError{Op: "register", StatusCode: 409, Message: "User already exists"}
	}
	b.users[email] = backendUser{name: req.Name, password: req.Password}
	return nil
}

func (b *Backend) GenerateQuestions(_ context.Context, payload string) ([]domain.Question, error) {
	if err := b.record("generate_questions"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.Payloads = append(b.Payloads, payload)
	override := b.Questions
	b.mu.Unlock()
	if override != nil {
		return append([]domain.Question(nil), override...), nil
	}
	return SampleQuestions(), nil
}

func (b *Backend) GenerateJoinLink(_ context.Context, req domain.JoinLinkRequest) (*domain.JoinLink, error) {
	if err := b.record("generate_join_link"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.JoinLink != nil {
		link := *b.JoinLink
		return &link, nil
	}
	b.rooms++
	room := fmt.Sprintf("room-%d", b.rooms)
	return &domain.JoinLink{
		RoomID:          room,
		InterviewerLink: "https://meet.example.com/" + room + "-interviewer",
		CandidateLink:   "https://meet.example.com/" + room + "-candidate",
		Questions:       SampleQuestions()[:2],
	}, nil
}

func (b *Backend) GenerateReport(ctx context.Context, roomID string) (*domain.Report, error) {
	if err := b.record("generate_report"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	gate := b.Gate
	override := b.Report
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if override != nil {
		rep := *override
		return &rep, nil
	}
	return SampleReport(), nil
}

// SampleQuestions are the five React questions used throughout the demo data.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "1", Question: "Can you explain your experience with React hooks?", Category: "Technical", Difficulty: "Medium"},
		{ID: "2", Question: "How do you manage state in large React applications?", Category: "Technical", Difficulty: "Hard"},
		{ID: "3", Question: "Describe a challenging project you worked on and how you overcame obstacles.", Category: "Behavioral", Difficulty: "Medium"},
		{ID: "4", Question: "What is your approach to testing React components?", Category: "Technical", Difficulty: "Medium"},
		{ID: "5", Question: "How do you handle performance optimization in React?", Category: "Technical", Difficulty: "Hard"},
	}
}

// SampleReport is the report the backend returns by default.
func SampleReport() *domain.Report {
	return &domain.Report{
		Strengths:  []string{"Strong problem-solving skills", "Excellent communication", "Deep technical knowledge"},
		Weaknesses: []string{"Could improve system design explanations", "Limited experience with cloud architecture"},
		Summary:    "Overall, the candidate demonstrated strong technical abilities and excellent communication skills.",
		AIAnalysis: "Based on the conversation analysis, the candidate shows confidence in their responses and provides detailed technical explanations. Their communication style is clear and concise.",
	}
}

// SampleRecords returns one scheduled and one completed interview.
func SampleRecords() []*domain.Record {
	return []*domain.Record{
		{
			ID:              "1",
			CandidateName:   "John Doe",
			CandidateEmail:  "john@example.com",
			CandidatePhone:  "555-123-4567",
			Date:            time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
			Status:          domain.StatusScheduled,
			JobDescription:  "Senior React Developer position requiring 5+ years of experience.",
			InterviewerLink: "https://meet.example.com/interview-123-interviewer",
			CandidateLink:   "https://meet.example.com/interview-123-candidate",
		},
		{
			ID:             "2",
			CandidateName:  "Jane Smith",
			CandidateEmail: "jane@example.com",
			CandidatePhone: "555-987-6543",
			Date:           time.Date(2025, 4, 28, 14, 0, 0, 0, time.UTC),
			Status:         domain.StatusCompleted,
			JobDescription: "Junior Frontend Developer with React and TypeScript experience.",
			Feedback: &domain.Feedback{
				CommunicationRating: 4,
				TechnicalRating:     5,
				Notes:               "Excellent candidate with strong technical skills.",
			},
			Report: &domain.Report{
				Strengths:  []string{"Strong React knowledge", "Excellent communication", "Problem-solving skills"},
				Weaknesses: []string{"Limited TypeScript experience"},
				Summary:    "Jane is a strong candidate with excellent React skills and communication abilities.",
				AIAnalysis: "The candidate demonstrated clear communication and strong technical knowledge throughout the interview.",
			},
		},
	}
}
