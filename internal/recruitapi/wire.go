package recruitapi

import (
	"encoding/json"
	"strconv"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authenticateResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	User  *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user,omitempty"`
}

func (r authenticateResponse) user() *domain.User {
	if r.User != nil {
		return &domain.User{Name: r.User.Name, Email: r.User.Email}
	}
	return &domain.User{Name: r.Name, Email: r.Email}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type questionsRequest struct {
	JobDescription string `json:"job_description"`
}

type questionsResponse struct {
	Questions []wireQuestion `json:"questions"`
}

type joinLinkRequest struct {
	InterviewerName  string `json:"interviewer_name"`
	InterviewerEmail string `json:"interviewer_email"`
	CandidateName    string `json:"candidate_name"`
	CandidateEmail   string `json:"candidate_email"`
	CandidatePhone   string `json:"candidate_phone"`
	ScheduledAt      string `json:"scheduled_at"`
	JobDescription   string `json:"job_description"`
}

type joinLinkResponse struct {
	InterviewerLink    string         `json:"interviewer_link"`
	IntervieweeLink    string         `json:"interviewee_link"`
	RoomID             string         `json:"room_id"`
	GeneratedQuestions []wireQuestion `json:"generated_questions"`
}

type reportRequest struct {
	RoomID string `json:"room_id"`
}

type wireReport struct {
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Summary        string   `json:"summary"`
	AIAnalysis     string   `json:"ai_analysis"`
	AIAnalysisAlt  string   `json:"aiAnalysis"`
	Recommendation string   `json:"recommendation"`
	Score          float64  `json:"score"`
}

// reportResponse accepts the report either at the top level or nested
// under "report".
type reportResponse struct {
	wireReport
	Report *wireReport `json:"report"`
}

func (r reportResponse) report() *domain.Report {
	w := r.wireReport
	if r.Report != nil {
		w = *r.Report
	}
	analysis := w.AIAnalysis
	if analysis == "" {
		analysis = w.AIAnalysisAlt
	}
	return &domain.Report{
		Strengths:      w.Strengths,
		Weaknesses:     w.Weaknesses,
		Summary:        w.Summary,
		AIAnalysis:     analysis,
		Recommendation: w.Recommendation,
		Score:          w.Score,
	}
}

// wireQuestion decodes either a question object or a bare string.
type wireQuestion struct {
	ID         string
	Question   string
	Category   string
	Difficulty string
}

func (q *wireQuestion) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		q.Question = s
		return nil
	}
	var obj struct {
		ID         json.RawMessage `json:"id"`
		Question   string          `json:"question"`
		Category   string          `json:"category"`
		Difficulty string          `json:"difficulty"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	q.Question = obj.Question
	q.Category = obj.Category
	q.Difficulty = obj.Difficulty
	if len(obj.ID) > 0 {
		var id string
		if err := json.Unmarshal(obj.ID, &id); err == nil {
			q.ID = id
		} else {
			var n int64
			if err := json.Unmarshal(obj.ID, &n); err == nil {
				q.ID = strconv.FormatInt(n, 10)
			}
		}
	}
	return nil
}

func toQuestions(in []wireQuestion) []domain.Question {
	out := make([]domain.Question, 0, len(in))
	for _, q := range in {
		if q.Question == "" {
			continue
		}
		out = append(out, domain.Question{
			ID:         q.ID,
			Question:   q.Question,
			Category:   q.Category,
			Difficulty: q.Difficulty,
		})
	}
	return out
}
