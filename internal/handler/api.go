package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

// APIHandler exposes the interview store as JSON.
type APIHandler struct {
	interviews *service.InterviewStore
	resumes    *service.ResumeService
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(interviews *service.InterviewStore, resumes *service.ResumeService) *APIHandler {
	return &APIHandler{interviews: interviews, resumes: resumes}
}

type questionsRequest struct {
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	Experience     string `json:"experience"`
	Skills         string `json:"skills"`
}

type scheduleRequest struct {
	CandidateName  string    `json:"candidateName"`
	CandidateEmail string    `json:"candidateEmail"`
	CandidatePhone string    `json:"candidatePhone"`
	Date           time.Time `json:"date"`
	JobDescription string    `json:"jobDescription"`
	ResumeURL      string    `json:"resumeUrl"`
}

type feedbackRequest struct {
	CommunicationRating int    `json:"communicationRating"`
	TechnicalRating     int    `json:"technicalRating"`
	Notes               string `json:"notes"`
}

type resumeDTO struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// HandleGenerateQuestions generates interview questions.
// POST /api/questions
func (h *APIHandler) HandleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	questions, err := h.interviews.GenerateQuestions(r.Context(), domain.QuestionRequest{
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		Experience:     req.Experience,
		Skills:         req.Skills,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate questions.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": toQuestionDTOs(questions)})
}

// HandleListInterviews returns every interview record.
// GET /api/interviews
func (h *APIHandler) HandleListInterviews(w http.ResponseWriter, r *http.Request) {
	records := h.interviews.List()
	if q, status := r.URL.Query().Get("q"), r.URL.Query().Get("status"); q != "" || status != "" {
		records = service.FilterHistory(records, service.HistoryFilter{Query: q, Status: status})
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviews": toRecordDTOs(records)})
}

// HandleScheduleInterview schedules an interview for the signed-in user.
// POST /api/interviews
func (h *APIHandler) HandleScheduleInterview(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	user := UserFromContext(r.Context())

	record, err := h.interviews.ScheduleInterview(r.Context(), *user, domain.ScheduleRequest{
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		CandidatePhone: req.CandidatePhone,
		Date:           req.Date,
		JobDescription: req.JobDescription,
		ResumeURL:      req.ResumeURL,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to schedule interview.")
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(record))
}

// HandleGetInterview returns a single record.
// GET /api/interviews/{id}
func (h *APIHandler) HandleGetInterview(w http.ResponseWriter, r *http.Request) {
	record := h.interviews.GetInterviewByID(chi.URLParam(r, "id"))
	if record == nil {
		writeError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// HandleSubmitFeedback records feedback and completes the interview.
// POST /api/interviews/{id}/feedback
func (h *APIHandler) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	record, err := h.interviews.SubmitFeedback(r.Context(), chi.URLParam(r, "id"), domain.Feedback{
		CommunicationRating: req.CommunicationRating,
		TechnicalRating:     req.TechnicalRating,
		Notes:               req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to submit feedback.")
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// HandleGenerateReport fetches the backend report for an interview.
// POST /api/interviews/{id}/report
func (h *APIHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	record, err := h.interviews.GenerateReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate report.")
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// HandleOperations lists the calls currently in flight.
// GET /api/operations
func (h *APIHandler) HandleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"operations": toOperationDTOs(h.interviews.Pending())})
}

// HandleDashboard returns the dashboard summary.
// GET /api/dashboard
func (h *APIHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDashboardDTO(service.ComputeDashboard(h.interviews.List())))
}

// HandleUploadResume stores a resume sent as the "resume" multipart field.
// POST /api/resumes
func (h *APIHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.resumes.MaxSize()+1<<20)
	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A resume file is required.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.resumes.MaxSize()+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read resume.")
		return
	}

	resume, err := h.resumes.Upload(r.Context(), UserFromContext(r.Context()).Email, header.Filename, data)
	if err != nil {
		writeServiceError(w, r, err, "Failed to upload resume.")
		return
	}
	writeJSON(w, http.StatusCreated, resumeDTO{
		URL:         service.ResumeURL(resume),
		Filename:    resume.Filename,
		ContentType: resume.ContentType,
		Size:        resume.Size,
	})
}

// HandleServeResume serves a stored resume.
// GET /resumes/{key}
func (h *APIHandler) HandleServeResume(w http.ResponseWriter, r *http.Request) {
	resume, data, err := h.resumes.GetFile(r.Context(), "resumes/"+chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		slog.Error("get resume", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", resume.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": resume.Filename}))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
