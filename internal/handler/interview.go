package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/export"
	"github.com/msomdec/recruit-dashboard/internal/service"
	"github.com/msomdec/recruit-dashboard/internal/view"
)

const (
	defaultInterviewTime = "09:00"
	notFoundMessage      = "Interview not found."
)

// InterviewHandler serves the question, scheduling, session, feedback and
// report pages.
type InterviewHandler struct {
	interviews   *service.InterviewStore
	resumes      *service.ResumeService
	newSimulator func() *service.AnalyticsSimulator
	now          func() time.Time
}

// NewInterviewHandler creates a new InterviewHandler. newSimulator builds
// the analytics simulator for each session stream.
func NewInterviewHandler(interviews *service.InterviewStore, resumes *service.ResumeService, newSimulator func() *service.AnalyticsSimulator) *InterviewHandler {
	if newSimulator == nil {
		newSimulator = service.NewAnalyticsSimulator
	}
	h := &InterviewHandler{interviews: interviews, resumes: resumes, newSimulator: newSimulator, now: time.Now}
	if interviews != nil {
		// Dates are validated on the store's clock so the form and the store
		// agree on what "today" is.
		h.now = interviews.Now
	}
	return h
}

func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

func reportURL(id string) string {
	return "/interview-reports?id=" + url.QueryEscape(id)
}

// HandleDashboard renders the dashboard summary.
func (h *InterviewHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	stats := service.ComputeDashboard(h.interviews.List())
	view.DashboardPage(frame(w, r), stats).Render(r.Context(), w)
}

// HandleQuestionsPage renders the question generator.
func (h *InterviewHandler) HandleQuestionsPage(w http.ResponseWriter, r *http.Request) {
	pending := h.interviews.IsPending(service.OpGenerateQuestions, "")
	view.QuestionsPage(frame(w, r), view.QuestionsForm{}, nil, pending).Render(r.Context(), w)
}

// HandleGenerateQuestions processes the question generator form.
func (h *InterviewHandler) HandleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := view.QuestionsForm{QuestionRequest: domain.QuestionRequest{
		JobTitle:       r.FormValue("jobTitle"),
		JobDescription: r.FormValue("jobDescription"),
		Experience:     r.FormValue("experience"),
		Skills:         r.FormValue("skills"),
	}}
	f := frame(w, r)

	questions, err := h.interviews.GenerateQuestions(r.Context(), form.QuestionRequest)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			form.FieldErrors = vErr.FieldErrors
			w.WriteHeader(http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrBackend):
			form.Error = domain.UserMessage(err, "Failed to generate questions. Please try again.")
			w.WriteHeader(http.StatusBadGateway)
		default:
			slog.Error("generate questions", "error", err)
			form.Error = "Failed to generate questions. Please try again."
			w.WriteHeader(http.StatusInternalServerError)
		}
		view.QuestionsPage(f, form, nil, false).Render(r.Context(), w)
		return
	}

	f.Flash = &view.Flash{Kind: "success", Message: "Questions generated successfully."}
	view.QuestionsPage(f, form, questions, false).Render(r.Context(), w)
}

// HandleSchedulePage renders the scheduling form.
func (h *InterviewHandler) HandleSchedulePage(w http.ResponseWriter, r *http.Request) {
	form := view.ScheduleForm{Time: defaultInterviewTime}
	pending := h.interviews.IsPending(service.OpScheduleInterview, "")
	view.SchedulePage(frame(w, r), form, nil, pending).Render(r.Context(), w)
}

// parseScheduleDate combines the date and time inputs in the server's
// location. An unparseable date yields the zero time, which fails
// validation as missing.
func parseScheduleDate(date, clock string) time.Time {
	if strings.TrimSpace(clock) == "" {
		clock = defaultInterviewTime
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HandleSchedule processes the scheduling form, including the optional
// resume upload.
func (h *InterviewHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.resumes.MaxSize() + 1<<20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	user := UserFromContext(r.Context())
	f := frame(w, r)
	form := view.ScheduleForm{
		CandidateName:  r.FormValue("candidateName"),
		CandidateEmail: r.FormValue("candidateEmail"),
		CandidatePhone: r.FormValue("candidatePhone"),
		Date:           r.FormValue("date"),
		Time:           r.FormValue("time"),
		JobDescription: r.FormValue("jobDescription"),
	}
	req := domain.ScheduleRequest{
		CandidateName:  form.CandidateName,
		CandidateEmail: form.CandidateEmail,
		CandidatePhone: form.CandidatePhone,
		Date:           parseScheduleDate(form.Date, form.Time),
		JobDescription: form.JobDescription,
	}

	if err := service.ValidateSchedule(req, h.now()); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			form.FieldErrors = vErr.FieldErrors
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.SchedulePage(f, form, nil, false).Render(r.Context(), w)
		return
	}

	resume, err := h.uploadResume(r, user)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			form.FieldErrors = map[string]string{"resume": strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")}
			w.WriteHeader(http.StatusUnprocessableEntity)
		} else {
			slog.Error("upload resume", "error", err)
			form.Error = "Failed to upload resume. Please try again."
			w.WriteHeader(http.StatusInternalServerError)
		}
		view.SchedulePage(f, form, nil, false).Render(r.Context(), w)
		return
	}
	if resume != nil {
		req.ResumeURL = service.ResumeURL(resume)
	}

	record, err := h.interviews.ScheduleInterview(r.Context(), *user, req)
	if err != nil {
		if resume != nil {
			if delErr := h.resumes.Delete(r.Context(), resume.StorageKey); delErr != nil {
				slog.Error("delete orphaned resume", "error", delErr)
			}
		}
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			form.FieldErrors = vErr.FieldErrors
			w.WriteHeader(http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrBackend):
			form.Error = domain.UserMessage(err, "Failed to schedule interview. Please try again.")
			w.WriteHeader(http.StatusBadGateway)
		default:
			slog.Error("schedule interview", "error", err)
			form.Error = "Failed to schedule interview. Please try again."
			w.WriteHeader(http.StatusInternalServerError)
		}
		view.SchedulePage(f, form, nil, false).Render(r.Context(), w)
		return
	}

	f.Flash = &view.Flash{Kind: "success", Message: "Interview scheduled successfully."}
	view.SchedulePage(f, form, record, false).Render(r.Context(), w)
}

// uploadResume stores the optional "resume" file. It returns nil when no
// file was sent.
func (h *InterviewHandler) uploadResume(r *http.Request, user *domain.User) (*domain.Resume, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not read resume", domain.ErrInvalidInput)
	}
	defer file.Close()
	if header.Filename == "" && header.Size == 0 {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(file, h.resumes.MaxSize()+1))
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	return h.resumes.Upload(r.Context(), user.Email, header.Filename, data)
}

// HandleSessionPage renders the live interview page.
func (h *InterviewHandler) HandleSessionPage(w http.ResponseWriter, r *http.Request) {
	record := h.interviews.GetInterviewByID(r.URL.Query().Get("id"))
	if record == nil {
		redirectWithFlash(w, r, "/dashboard", "error", notFoundMessage)
		return
	}
	view.SessionPage(frame(w, r), record).Render(r.Context(), w)
}

// HandleAnalytics streams simulated live analytics until the client goes
// away.
// GET /interview-session/analytics?id=
func (h *InterviewHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	if h.interviews.GetInterviewByID(r.URL.Query().Get("id")) == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	sse := datastar.NewSSE(w, r)
	err := h.newSimulator().Run(r.Context(), func(a service.Analytics) error {
		return sse.PatchElementTempl(view.AnalyticsPanel(a))
	})
	if err != nil && r.Context().Err() == nil {
		slog.Error("stream analytics", "error", err)
	}
}

// HandleFeedbackPage renders the feedback form.
func (h *InterviewHandler) HandleFeedbackPage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	record := h.interviews.GetInterviewByID(id)
	if record == nil {
		redirectWithFlash(w, r, "/dashboard", "error", notFoundMessage)
		return
	}
	pending := h.interviews.IsPending(service.OpSubmitFeedback, id)
	view.FeedbackPage(frame(w, r), record, view.FeedbackForm{}, pending).Render(r.Context(), w)
}

// HandleSubmitFeedback records the interviewer's ratings and notes.
func (h *InterviewHandler) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id := r.URL.Query().Get("id")
	form := view.FeedbackForm{
		CommunicationRating: r.FormValue("communicationRating"),
		TechnicalRating:     r.FormValue("technicalRating"),
		Notes:               r.FormValue("notes"),
	}
	comm, _ := strconv.Atoi(form.CommunicationRating)
	tech, _ := strconv.Atoi(form.TechnicalRating)

	_, err := h.interviews.SubmitFeedback(r.Context(), id, domain.Feedback{
		CommunicationRating: comm,
		TechnicalRating:     tech,
		Notes:               form.Notes,
	})
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			redirectWithFlash(w, r, "/dashboard", "error", notFoundMessage)
		case errors.As(err, &vErr):
			record := h.interviews.GetInterviewByID(id)
			if record == nil {
				redirectWithFlash(w, r, "/dashboard", "error", notFoundMessage)
				return
			}
			f := frame(w, r)
			form.FieldErrors = vErr.FieldErrors
			w.WriteHeader(http.StatusUnprocessableEntity)
			view.FeedbackPage(f, record, form, false).Render(r.Context(), w)
		default:
			slog.Error("submit feedback", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	redirectWithFlash(w, r, reportURL(id), "success", "Feedback submitted successfully.")
}

// HandleReportPage renders the report of a completed interview.
func (h *InterviewHandler) HandleReportPage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	record := h.interviews.GetInterviewByID(id)
	if record == nil {
		redirectWithFlash(w, r, "/interview-history", "error", notFoundMessage)
		return
	}
	if record.Status != domain.StatusCompleted {
		redirectWithFlash(w, r, "/interview-history", "error", "This interview has not been completed yet.")
		return
	}
	if err := h.interviews.SetCurrent(id); err != nil {
		slog.Error("select current interview", "error", err)
	}
	pending := h.interviews.IsPending(service.OpGenerateReport, id)
	view.ReportPage(frame(w, r), record, pending).Render(r.Context(), w)
}

// HandleGenerateReport asks the backend for the interview's report. Datastar
// requests get the report section patched in place; plain form posts are
// redirected back to the report page.
func (h *InterviewHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	record, err := h.interviews.GenerateReport(r.Context(), id)

	if !isDatastar(r) {
		switch {
		case err == nil:
			redirectWithFlash(w, r, reportURL(id), "success", "Report generated successfully.")
		case errors.Is(err, domain.ErrNotFound):
			redirectWithFlash(w, r, "/interview-history", "error", notFoundMessage)
		default:
			if !errors.Is(err, domain.ErrBackend) {
				slog.Error("generate report", "error", err)
			}
			redirectWithFlash(w, r, reportURL(id), "error", domain.UserMessage(err, "Failed to generate report."))
		}
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		setFlash(w, "error", notFoundMessage)
	}
	sse := datastar.NewSSE(w, r)
	switch {
	case err == nil:
		sse.PatchElementTempl(view.ReportContent(record, false))
		sse.PatchElementTempl(view.FlashBanner(&view.Flash{Kind: "success", Message: "Report generated successfully."}))
	case errors.Is(err, domain.ErrNotFound):
		sse.Redirect("/interview-history")
	default:
		if !errors.Is(err, domain.ErrBackend) {
			slog.Error("generate report", "error", err)
		}
		sse.PatchElementTempl(view.FlashBanner(&view.Flash{Kind: "error", Message: domain.UserMessage(err, "Failed to generate report.")}))
	}
}

// HandleDownloadReport sends the interview's report as a workbook.
func (h *InterviewHandler) HandleDownloadReport(w http.ResponseWriter, r *http.Request) {
	record := h.interviews.GetInterviewByID(r.URL.Query().Get("id"))
	if record == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename("report-"+record.ID, h.now())))
	if err := export.WriteReport(w, record); err != nil {
		slog.Error("write report workbook", "error", err)
	}
}
