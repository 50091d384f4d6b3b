package recruitapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/recruitapi"
)

type recordedCall struct {
	op     string
	status int
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (o *fakeObserver) ObserveBackendCall(op string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, recordedCall{op: op, status: status})
}

func newBackend(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return body
}

func TestAuthenticate_Success(t *testing.T) {
	mux := http.NewServeMux()
	var gotAuth, gotCookie string
	mux.HandleFunc("POST /api/authenticate", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		body := decodeBody(t, r)
		if body["email"] != "a@b.com" || body["password"] != "secret" {
			t.Errorf("unexpected body %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"name": "Ada", "email": "a@b.com"})
	})
	srv := newBackend(t, mux)
	obs := &fakeObserver{}

	c := recruitapi.New(srv.URL,
		recruitapi.WithBearerToken("tok-123"),
		recruitapi.WithSessionCookie("session=abc"),
		recruitapi.WithObserver(obs),
	)
	user, err := c.Authenticate(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if user.Email != "a@b.com" || user.Name != "Ada" {
		t.Fatalf("unexpected user %+v", user)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer token header, got %q", gotAuth)
	}
	if gotCookie != "session=abc" {
		t.Fatalf("expected session cookie header, got %q", gotCookie)
	}
	if len(obs.calls) != 1 || obs.calls[0].op != recruitapi.OpAuthenticate || obs.calls[0].status != 200 {
		t.Fatalf("unexpected observed calls %+v", obs.calls)
	}
}

func TestAuthenticate_ErrorMessageFromResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/authenticate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
	})
	srv := newBackend(t, mux)

	_, err := recruitapi.New(srv.URL).Authenticate(context.Background(), "a@b.com", "wrong")

	var be *domain.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if be.StatusCode != http.StatusUnauthorized || be.Message != "Invalid credentials" {
		t.Fatalf("unexpected backend error %+v", be)
	}
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatal("expected error to match ErrBackend")
	}
}

func TestErrorMessage_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message key", `{"message":"Room service down"}`, "Room service down"},
		{"error key", `{"error":"quota exceeded"}`, "quota exceeded"},
		{"validation list", `{"detail":[{"msg":"field required"}]}`, "field required"},
		{"not json", `<html>boom</html>`, "Failed to generate questions."},
		{"empty object", `{}`, "Failed to generate questions."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/generate_questions", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tt.body))
			})
			srv := newBackend(t, mux)

			_, err := recruitapi.New(srv.URL).GenerateQuestions(context.Background(), "payload")
			if got := domain.UserMessage(err, ""); got != tt.want {
				t.Fatalf("expected message %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRegister_SendsRole(t *testing.T) {
	mux := http.NewServeMux()
	var body map[string]any
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		w.WriteHeader(http.StatusCreated)
	})
	srv := newBackend(t, mux)

	err := recruitapi.New(srv.URL).Register(context.Background(), domain.RegisterRequest{
		Name: "Ada", Email: "a@b.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if body["role"] != domain.DefaultRole {
		t.Fatalf("expected default role, got %v", body["role"])
	}
	if body["name"] != "Ada" {
		t.Fatalf("expected name Ada, got %v", body["name"])
	}
}

func TestGenerateQuestions_MixedShapes(t *testing.T) {
	mux := http.NewServeMux()
	var payload string
	mux.HandleFunc("POST /api/generate_questions", func(w http.ResponseWriter, r *http.Request) {
		payload, _ = decodeBody(t, r)["job_description"].(string)
		w.Write([]byte(`{"questions":[
			{"id":7,"question":"Explain closures","category":"Technical","difficulty":"Easy"},
			"Tell me about yourself",
			{"question":""}
		]}`))
	})
	srv := newBackend(t, mux)

	qs, err := recruitapi.New(srv.URL).GenerateQuestions(context.Background(), "Job Title: Go Developer")
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if payload != "Job Title: Go Developer" {
		t.Fatalf("unexpected payload %q", payload)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].ID != "7" || qs[0].Category != "Technical" {
		t.Fatalf("unexpected first question %+v", qs[0])
	}
	if qs[1].Question != "Tell me about yourself" {
		t.Fatalf("unexpected second question %+v", qs[1])
	}
}

func TestGenerateJoinLink(t *testing.T) {
	mux := http.NewServeMux()
	var body map[string]any
	mux.HandleFunc("POST /api/generate_join_link", func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		json.NewEncoder(w).Encode(map[string]any{
			"room_id":          "room-42",
			"interviewer_link": "https://meet.test/room-42?role=interviewer",
			"interviewee_link": "https://meet.test/room-42?role=candidate",
			"generated_questions": []map[string]string{
				{"question": "Why Go?", "category": "Behavioral", "difficulty": "Easy"},
			},
		})
	})
	srv := newBackend(t, mux)

	when := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	link, err := recruitapi.New(srv.URL).GenerateJoinLink(context.Background(), domain.JoinLinkRequest{
		InterviewerName:  "Rita Recruiter",
		InterviewerEmail: "rita@corp.test",
		CandidateName:    "John Doe",
		CandidateEmail:   "john@example.com",
		ScheduledAt:      when,
		JobDescription:   "Senior Go developer for the platform team",
	})
	if err != nil {
		t.Fatalf("GenerateJoinLink: %v", err)
	}

	if link.RoomID != "room-42" || link.CandidateLink != "https://meet.test/room-42?role=candidate" {
		t.Fatalf("unexpected link %+v", link)
	}
	if len(link.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(link.Questions))
	}
	if body["scheduled_at"] != "2026-11-02T10:00:00Z" {
		t.Fatalf("unexpected scheduled_at %v", body["scheduled_at"])
	}
	if body["interviewer_email"] != "rita@corp.test" {
		t.Fatalf("unexpected interviewer_email %v", body["interviewer_email"])
	}
}

func TestGenerateReport_BothAnalysisSpellings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"snake case", `{"strengths":["Clear"],"weaknesses":["Terse"],"summary":"Good","ai_analysis":"Confident"}`},
		{"camel case", `{"strengths":["Clear"],"weaknesses":["Terse"],"summary":"Good","aiAnalysis":"Confident"}`},
		{"nested", `{"report":{"strengths":["Clear"],"weaknesses":["Terse"],"summary":"Good","ai_analysis":"Confident"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /generate_report", func(w http.ResponseWriter, r *http.Request) {
				if got := decodeBody(t, r)["room_id"]; got != "room-1" {
					t.Errorf("unexpected room_id %v", got)
				}
				w.Write([]byte(tt.body))
			})
			srv := newBackend(t, mux)

			rep, err := recruitapi.New(srv.URL).GenerateReport(context.Background(), "room-1")
			if err != nil {
				t.Fatalf("GenerateReport: %v", err)
			}
			if rep.AIAnalysis != "Confident" || rep.Summary != "Good" {
				t.Fatalf("unexpected report %+v", rep)
			}
			if len(rep.Strengths) != 1 || len(rep.Weaknesses) != 1 {
				t.Fatalf("unexpected strengths/weaknesses %+v", rep)
			}
		})
	}
}

func TestPost_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	obs := &fakeObserver{}

	_, err := recruitapi.New(url, recruitapi.WithObserver(obs)).GenerateReport(context.Background(), "room-1")

	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if got := domain.UserMessage(err, ""); got != "Failed to generate report." {
		t.Fatalf("unexpected message %q", got)
	}
	if len(obs.calls) != 1 || obs.calls[0].status != 0 {
		t.Fatalf("expected one observed call with status 0, got %+v", obs.calls)
	}
}
