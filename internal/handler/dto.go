package handler

import (
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

type userDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type questionDTO struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type feedbackDTO struct {
	CommunicationRating int    `json:"communicationRating"`
	TechnicalRating     int    `json:"technicalRating"`
	Notes               string `json:"notes"`
}

type reportDTO struct {
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Summary        string   `json:"summary"`
	AIAnalysis     string   `json:"aiAnalysis"`
	Recommendation string   `json:"recommendation,omitempty"`
	Score          float64  `json:"score,omitempty"`
}

type recordDTO struct {
	ID              string        `json:"id"`
	CandidateName   string        `json:"candidateName"`
	CandidateEmail  string        `json:"candidateEmail"`
	CandidatePhone  string        `json:"candidatePhone"`
	Date            time.Time     `json:"date"`
	Status          string        `json:"status"`
	JobDescription  string        `json:"jobDescription"`
	ResumeURL       string        `json:"resumeUrl,omitempty"`
	InterviewerLink string        `json:"interviewerLink"`
	CandidateLink   string        `json:"candidateLink"`
	Questions       []questionDTO `json:"questions"`
	Feedback        *feedbackDTO  `json:"feedback,omitempty"`
	Report          *reportDTO    `json:"report,omitempty"`
}

type operationDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	RecordID  string    `json:"recordId,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

type dashboardDTO struct {
	Scheduled     int         `json:"scheduled"`
	Completed     int         `json:"completed"`
	Total         int         `json:"total"`
	AverageRating string      `json:"averageRating"`
	Upcoming      []recordDTO `json:"upcoming"`
	Recent        []recordDTO `json:"recent"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{Name: u.Name, Email: u.Email}
}

func toQuestionDTOs(qs []domain.Question) []questionDTO {
	out := make([]questionDTO, len(qs))
	for i, q := range qs {
		out[i] = questionDTO{ID: q.ID, Question: q.Question, Category: q.Category, Difficulty: q.Difficulty}
	}
	return out
}

func toRecordDTO(r *domain.Record) recordDTO {
	dto := recordDTO{
		ID:              r.ID,
		CandidateName:   r.CandidateName,
		CandidateEmail:  r.CandidateEmail,
		CandidatePhone:  r.CandidatePhone,
		Date:            r.Date,
		Status:          string(r.Status),
		JobDescription:  r.JobDescription,
		ResumeURL:       r.ResumeURL,
		InterviewerLink: r.InterviewerLink,
		CandidateLink:   r.CandidateLink,
		Questions:       toQuestionDTOs(r.Questions),
	}
	if r.Feedback != nil {
		dto.Feedback = &feedbackDTO{
			CommunicationRating: r.Feedback.CommunicationRating,
			TechnicalRating:     r.Feedback.TechnicalRating,
			Notes:               r.Feedback.Notes,
		}
	}
	if r.Report != nil {
		dto.Report = &reportDTO{
			Strengths:      r.Report.Strengths,
			Weaknesses:     r.Report.Weaknesses,
			Summary:        r.Report.Summary,
			AIAnalysis:     r.Report.AIAnalysis,
			Recommendation: r.Report.Recommendation,
			Score:          r.Report.Score,
		}
	}
	return dto
}

func toRecordDTOs(records []*domain.Record) []recordDTO {
	out := make([]recordDTO, len(records))
	for i, r := range records {
		out[i] = toRecordDTO(r)
	}
	return out
}

func toOperationDTOs(ops []service.Operation) []operationDTO {
	out := make([]operationDTO, len(ops))
	for i, op := range ops {
		out[i] = operationDTO{ID: op.ID, Kind: string(op.Kind), RecordID: op.RecordID, StartedAt: op.StartedAt}
	}
	return out
}

func toDashboardDTO(s service.DashboardStats) dashboardDTO {
	return dashboardDTO{
		Scheduled:     s.Scheduled,
		Completed:     s.Completed,
		Total:         s.Total,
		AverageRating: s.AverageRating,
		Upcoming:      toRecordDTOs(s.Upcoming),
		Recent:        toRecordDTOs(s.Recent),
	}
}
