package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/metrics"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

// Config holds the dependencies of the HTTP surface.
type Config struct {
	Interviews   *service.InterviewStore
	Auth         domain.Authenticator
	Resumes      *service.ResumeService
	Database     domain.Database
	Sessions     SessionStorageFactory
	Metrics      *metrics.Metrics
	NewSimulator func() *service.AnalyticsSimulator
	Limiter      *service.TokenBucket
	Logger       *slog.Logger
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Rate limiting keys on that address, so leave it off unless
	// a proxy in front of the server overwrites those headers.
	TrustProxyHeaders bool
}

// NewRouter builds the application's HTTP handler.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	auth := NewAuthHandler()
	interviews := NewInterviewHandler(cfg.Interviews, cfg.Resumes, cfg.NewSimulator)
	api := NewAPIHandler(cfg.Interviews, cfg.Resumes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	r.Get("/healthz", HandleHealthz(cfg.Interviews, cfg.Database))

	r.Group(func(r chi.Router) {
		r.Use(LoadSession(cfg.Sessions, cfg.Auth, cfg.Logger))

		r.Get("/", auth.HandleRoot)
		r.Get("/login", auth.HandleLoginPage)
		r.Get("/register", auth.HandleRegisterPage)
		r.Post("/logout", auth.HandleLogout)

		r.Group(func(r chi.Router) {
			if cfg.Limiter != nil {
				r.Use(RateLimit(cfg.Limiter))
			}
			r.Post("/login", auth.HandleLogin)
			r.Post("/register", auth.HandleRegister)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)

			r.Get("/dashboard", interviews.HandleDashboard)
			r.Get("/generate-questions", interviews.HandleQuestionsPage)
			r.Post("/generate-questions", interviews.HandleGenerateQuestions)
			r.Get("/schedule-interview", interviews.HandleSchedulePage)
			r.Post("/schedule-interview", interviews.HandleSchedule)
			r.Get("/interview-session", interviews.HandleSessionPage)
			r.Get("/interview-session/analytics", interviews.HandleAnalytics)
			r.Get("/feedback", interviews.HandleFeedbackPage)
			r.Post("/feedback", interviews.HandleSubmitFeedback)
			r.Get("/interview-reports", interviews.HandleReportPage)
			r.Post("/interview-reports/generate", interviews.HandleGenerateReport)
			r.Get("/interview-reports/download", interviews.HandleDownloadReport)
			r.Get("/interview-history", interviews.HandleHistory)
			r.Get("/interview-history/filter", interviews.HandleHistoryFilter)
			r.Get("/interview-history/export", interviews.HandleHistoryExport)
			r.Get("/resumes/{key}", api.HandleServeResume)
		})

		r.Route("/api", func(r chi.Router) {
			r.Post("/auth/logout", auth.HandleAPILogout)
			r.Group(func(r chi.Router) {
				if cfg.Limiter != nil {
					r.Use(RateLimit(cfg.Limiter))
				}
				r.Post("/auth/login", auth.HandleAPILogin)
				r.Post("/auth/register", auth.HandleAPIRegister)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireAPISession)

				r.Get("/auth/me", auth.HandleMe)
				r.Post("/questions", api.HandleGenerateQuestions)
				r.Get("/interviews", api.HandleListInterviews)
				r.Post("/interviews", api.HandleScheduleInterview)
				r.Get("/interviews/{id}", api.HandleGetInterview)
				r.Post("/interviews/{id}/feedback", api.HandleSubmitFeedback)
				r.Post("/interviews/{id}/report", api.HandleGenerateReport)
				r.Get("/operations", api.HandleOperations)
				r.Get("/dashboard", api.HandleDashboard)
				r.Post("/resumes", api.HandleUploadResume)
			})
		})
	})

	return r
}
