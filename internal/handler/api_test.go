package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/testfixtures"
)

func apiClient(t *testing.T, env *testEnv) *http.Client {
	t.Helper()
	c := env.client(t)
	resp, body := postJSON(t, c, env.srv.URL+"/api/auth/login", `{"email":"demo@example.com","password":"password123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("api login: expected 200, got %d: %s", resp.StatusCode, body)
	}
	return c
}

func decode(t *testing.T, body string, dst any) {
	t.Helper()
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}

func TestHandleHealthz(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testfixtures.SampleRecords()...)

	resp, body := get(t, env.client(t), env.srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %s", ct)
	}
	var got struct {
		Status     string `json:"status"`
		Interviews int    `json:"interviews"`
	}
	decode(t, body, &got)
	if got.Status != "ok" || got.Interviews != 2 {
		t.Fatalf("unexpected health body %+v", got)
	}
}

func TestHandleHealthz_DatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	if err := env.db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	resp, body := get(t, env.client(t), env.srv.URL+"/healthz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var got struct {
		Status string `json:"status"`
	}
	decode(t, body, &got)
	if got.Status != "unavailable" {
		t.Fatalf("expected unavailable status, got %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)
	get(t, client, env.srv.URL+"/healthz")

	resp, body := get(t, client, env.srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `recruit_http_requests_total{code="200",method="GET",route="/healthz"} 1`) {
		t.Fatalf("expected the healthz request to be counted, got:\n%s", body)
	}
}

func TestAPI_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/interviews", "/api/dashboard", "/api/operations", "/api/auth/me"} {
		resp, _ := get(t, env.client(t), env.srv.URL+path)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestAPI_LoginFailure(t *testing.T) {
	env := newTestEnv(t)
	resp, body := postJSON(t, env.client(t), env.srv.URL+"/api/auth/login", `{"email":"demo@example.com","password":"nope"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Invalid credentials") {
		t.Fatalf("expected backend message, got %s", body)
	}
}

func TestAPI_RegisterAndMe(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	resp, body := postJSON(t, c, env.srv.URL+"/api/auth/register", `{"name":"Api User","email":"api@example.com","password":"password123"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", resp.StatusCode, body)
	}
	resp, _ = postJSON(t, c, env.srv.URL+"/api/auth/register", `{"name":"","email":"bad","password":"x"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid register: expected 422, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, c, env.srv.URL+"/api/auth/login", `{"email":"api@example.com","password":"password123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	_, body = get(t, c, env.srv.URL+"/api/auth/me")
	var me struct {
		User struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, body, &me)
	if me.User.Name != "Api User" || me.User.Email != "api@example.com" {
		t.Fatalf("unexpected user %+v", me.User)
	}

	resp, _ = postJSON(t, c, env.srv.URL+"/api/auth/logout", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = get(t, c, env.srv.URL+"/api/auth/me")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestAPI_InterviewLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := apiClient(t, env)
	base := env.srv.URL + "/api"

	resp, body := postJSON(t, c, base+"/questions", `{"jobTitle":"Engineer","jobDescription":"Build reliable payment services in Go."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("questions: expected 200, got %d: %s", resp.StatusCode, body)
	}
	var qs struct {
		Questions []struct {
			ID       string `json:"id"`
			Question string `json:"question"`
		} `json:"questions"`
	}
	decode(t, body, &qs)
	if len(qs.Questions) != 5 || qs.Questions[0].ID != "1" {
		t.Fatalf("unexpected questions %+v", qs.Questions)
	}

	date := testfixtures.ReferenceTime().Add(72 * time.Hour).Format(time.RFC3339)
	resp, body = postJSON(t, c, base+"/interviews", `{"candidateName":"Jane Smith","candidateEmail":"jane@example.com","candidatePhone":"555-987-6543","date":"`+date+`","jobDescription":"Full Stack Developer with Node.js and React."}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("schedule: expected 201, got %d: %s", resp.StatusCode, body)
	}
	var rec struct {
		ID              string `json:"id"`
		Status          string `json:"status"`
		InterviewerLink string `json:"interviewerLink"`
		Report          *struct {
			Summary string `json:"summary"`
		} `json:"report"`
	}
	decode(t, body, &rec)
	if rec.ID != "room-1" || rec.Status != "scheduled" || rec.InterviewerLink == "" {
		t.Fatalf("unexpected record %+v", rec)
	}

	resp, _ = get(t, c, base+"/interviews/room-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = get(t, c, base+"/interviews/unknown")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get unknown: expected 404, got %d", resp.StatusCode)
	}

	resp, body = postJSON(t, c, base+"/interviews/room-1/feedback", `{"communicationRating":6,"technicalRating":3}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid feedback: expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "communicationRating") {
		t.Fatalf("expected field errors, got %s", body)
	}

	resp, body = postJSON(t, c, base+"/interviews/room-1/feedback", `{"communicationRating":4,"technicalRating":3,"notes":"Good communication overall."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feedback: expected 200, got %d: %s", resp.StatusCode, body)
	}
	decode(t, body, &rec)
	if rec.Status != "completed" || rec.Report != nil {
		t.Fatalf("feedback should complete without a report, got %+v", rec)
	}

	resp, body = postJSON(t, c, base+"/interviews/room-1/report", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report: expected 200, got %d: %s", resp.StatusCode, body)
	}
	decode(t, body, &rec)
	if rec.Report == nil || rec.Report.Summary == "" {
		t.Fatal("expected a report summary")
	}

	_, body = get(t, c, base+"/dashboard")
	var dash struct {
		Total         int    `json:"total"`
		Completed     int    `json:"completed"`
		AverageRating string `json:"averageRating"`
	}
	decode(t, body, &dash)
	if dash.Total != 1 || dash.Completed != 1 || dash.AverageRating != "3.5" {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	_, body = get(t, c, base+"/operations")
	if !strings.Contains(body, `"operations":[]`) {
		t.Fatalf("expected no pending operations, got %s", body)
	}
}

func TestAPI_BackendErrorIs502(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testfixtures.SampleRecords()...)
	env.backend.SetErr("generate_report", errBackendDown)
	c := apiClient(t, env)

	resp, body := postJSON(t, c, env.srv.URL+"/api/interviews/1/report", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Report service unavailable") {
		t.Fatalf("expected backend message, got %s", body)
	}
}

func TestAPI_UploadResume(t *testing.T) {
	env := newTestEnv(t)
	c := apiClient(t, env)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume", "cv.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(samplePDF)
	mw.Close()

	resp, err := c.Post(env.srv.URL+"/api/resumes", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /api/resumes: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var got struct {
		URL         string `json:"url"`
		ContentType string `json:"contentType"`
	}
	decode(t, body, &got)
	if !strings.HasPrefix(got.URL, "/resumes/") || got.ContentType != "application/pdf" {
		t.Fatalf("unexpected resume %+v", got)
	}

	resp, _ = get(t, c, env.srv.URL+"/resumes/does-not-exist")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing resume: expected 404, got %d", resp.StatusCode)
	}
}
