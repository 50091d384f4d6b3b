package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/export"
	"github.com/msomdec/recruit-dashboard/internal/testfixtures"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// completedRecord schedules an interview through the store and submits
// feedback for it, returning its id.
func completedRecord(t *testing.T, env *testEnv) string {
	t.Helper()
	ctx := context.Background()
	rec, err := env.store.ScheduleInterview(ctx, domain.User{Name: "Demo User", Email: "demo@example.com"}, domain.ScheduleRequest{
		CandidateName:  "Jane Smith",
		CandidateEmail: "jane@example.com",
		CandidatePhone: "555-987-6543",
		Date:           testfixtures.ReferenceTime().Add(48 * time.Hour),
		JobDescription: "Full Stack Developer with Node.js and React experience.",
	})
	if err != nil {
		t.Fatalf("ScheduleInterview: %v", err)
	}
	if _, err := env.store.SubmitFeedback(ctx, rec.ID, domain.Feedback{CommunicationRating: 4, TechnicalRating: 3, Notes: "Solid fundamentals overall."}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	return rec.ID
}

func multipartSchedule(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range scheduleForm() {
		if err := mw.WriteField(k, v[0]); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("resume", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestGenerateQuestions(t *testing.T) {
	env := newTestEnv(t)
	client := env.loggedInClient(t)

	resp, body := postForm(t, client, env.srv.URL+"/generate-questions", url.Values{
		"jobTitle":       {"Frontend Engineer"},
		"jobDescription": {"Build and maintain our React design system."},
		"skills":         {"React, TypeScript"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Can you explain your experience with React hooks?") {
		t.Fatal("expected generated questions in the page")
	}
	if len(env.backend.Payloads) != 1 || !strings.Contains(env.backend.Payloads[0], "Frontend Engineer") {
		t.Fatalf("unexpected backend payloads: %v", env.backend.Payloads)
	}
}

func TestGenerateQuestions_Errors(t *testing.T) {
	t.Run("short description", func(t *testing.T) {
		env := newTestEnv(t)
		resp, _ := postForm(t, env.loggedInClient(t), env.srv.URL+"/generate-questions", url.Values{
			"jobDescription": {"too short"},
		})
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", resp.StatusCode)
		}
		if env.backend.CallCount("generate_questions") != 0 {
			t.Fatal("backend should not be called for invalid input")
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.SetErr("generate_questions", &domain.BackendError{Op: "generate_questions", StatusCode: 500, Message: "Model is overloaded"})
		resp, body := postForm(t, env.loggedInClient(t), env.srv.URL+"/generate-questions", url.Values{
			"jobDescription": {"Build and maintain our React design system."},
		})
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", resp.StatusCode)
		}
		if !strings.Contains(body, "Model is overloaded") {
			t.Fatal("expected the backend message in the page")
		}
	})
}

func TestSchedule_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	form := scheduleForm()
	form.Set("candidateEmail", "not-an-email")
	form.Set("date", testfixtures.ReferenceTime().AddDate(0, 0, -2).Format("2006-01-02"))

	resp, body := postForm(t, env.loggedInClient(t), env.srv.URL+"/schedule-interview", form)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Jane Smith") {
		t.Fatal("form values should be kept after a validation error")
	}
	if len(env.store.List()) != 0 {
		t.Fatal("no record should be created")
	}
	if env.backend.CallCount("generate_join_link") != 0 {
		t.Fatal("backend should not be called for invalid input")
	}
}

func TestSchedule_ValidatesAgainstStoreClock(t *testing.T) {
	env := newTestEnv(t)
	form := scheduleForm()
	form.Set("date", testfixtures.ReferenceTime().AddDate(0, 0, 1).Format("2006-01-02"))

	resp, _ := postForm(t, env.loggedInClient(t), env.srv.URL+"/schedule-interview", form)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for a date after the store's today, got %d", resp.StatusCode)
	}
	if len(env.store.List()) != 1 {
		t.Fatalf("expected 1 record, got %d", len(env.store.List()))
	}

	env.clock.Advance(72 * time.Hour)
	resp, _ = postForm(t, env.loggedInClient(t), env.srv.URL+"/schedule-interview", form)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 once the store's clock passes the date, got %d", resp.StatusCode)
	}
	if len(env.store.List()) != 1 {
		t.Fatal("a past date must not create a record")
	}
}

func TestSchedule_WithResume(t *testing.T) {
	env := newTestEnv(t)
	client := env.loggedInClient(t)

	body, contentType := multipartSchedule(t, "cv.pdf", samplePDF)
	resp, err := client.Post(env.srv.URL+"/schedule-interview", contentType, body)
	if err != nil {
		t.Fatalf("POST /schedule-interview: %v", err)
	}
	page := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	rec := env.store.GetInterviewByID("room-1")
	if rec == nil {
		t.Fatal("expected record room-1")
	}
	if !strings.HasPrefix(rec.ResumeURL, "/resumes/") {
		t.Fatalf("expected a resume url, got %q", rec.ResumeURL)
	}
	if !strings.Contains(page, rec.ResumeURL) {
		t.Fatal("schedule confirmation should link the resume")
	}

	resp, err = client.Get(env.srv.URL + rec.ResumeURL)
	if err != nil {
		t.Fatalf("GET resume: %v", err)
	}
	data := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("resume: expected application/pdf, got %s", ct)
	}
	if data != string(samplePDF) {
		t.Fatal("resume bytes differ from the upload")
	}
}

func TestSchedule_RejectsUnsupportedResume(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartSchedule(t, "notes.txt", []byte("plain text resume"))

	resp, err := env.loggedInClient(t).Post(env.srv.URL+"/schedule-interview", contentType, body)
	if err != nil {
		t.Fatalf("POST /schedule-interview: %v", err)
	}
	page := readBody(t, resp)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(page, "only PDF, DOC and DOCX resumes are accepted") {
		t.Fatal("expected the resume error next to the field")
	}
	if env.backend.CallCount("generate_join_link") != 0 {
		t.Fatal("backend should not be called when the resume is rejected")
	}
}

func TestSchedule_BackendFailureRemovesResume(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetErr("generate_join_link", &domain.BackendError{Op: "generate_join_link", StatusCode: 503, Message: "Rooms unavailable"})
	client := env.loggedInClient(t)

	body, contentType := multipartSchedule(t, "cv.pdf", samplePDF)
	resp, err := client.Post(env.srv.URL+"/schedule-interview", contentType, body)
	if err != nil {
		t.Fatalf("POST /schedule-interview: %v", err)
	}
	page := readBody(t, resp)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if !strings.Contains(page, "Rooms unavailable") {
		t.Fatal("expected the backend message")
	}
	if len(env.store.List()) != 0 {
		t.Fatal("no record should be created")
	}
}

func TestSessionPage_UnknownInterview(t *testing.T) {
	env := newTestEnv(t)
	client := env.loggedInClient(t)

	resp, _ := get(t, client, env.srv.URL+"/interview-session?id=nope")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, body := get(t, client, env.srv.URL+"/dashboard")
	if !strings.Contains(body, "Interview not found.") {
		t.Fatal("dashboard should show the not found flash")
	}
}

func TestAnalyticsStream(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testfixtures.SampleRecords()...)
	client := env.loggedInClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if start, ok := env.tickers.Next(5 * time.Second); ok {
			start.Tick(5 * time.Second)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/interview-session/analytics?id=1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Datastar-Request", "true")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET analytics: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected an event stream, got %s", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	found := false
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "Candidate introduction is clear and concise") {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected the initial analytics sample in the stream")
	}
}

func TestAnalyticsStream_UnknownInterview(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := get(t, env.loggedInClient(t), env.srv.URL+"/interview-session/analytics?id=missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSubmitFeedback_InvalidRatings(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testfixtures.SampleRecords()...)

	resp, body := postForm(t, env.loggedInClient(t), env.srv.URL+"/feedback?id=1", url.Values{
		"communicationRating": {"0"},
		"technicalRating":     {"4"},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Feedback for John Doe") {
		t.Fatal("expected the feedback form to be shown again")
	}
	if rec := env.store.GetInterviewByID("1"); rec.Status != domain.StatusScheduled {
		t.Fatalf("record should still be scheduled, got %s", rec.Status)
	}
}

func TestReportPage_RequiresCompletedInterview(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testfixtures.SampleRecords()...)
	client := env.loggedInClient(t)

	resp, _ := get(t, client, env.srv.URL+"/interview-reports?id=1")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/interview-history" {
		t.Fatalf("expected redirect to history, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body := get(t, client, env.srv.URL+"/interview-reports?id=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Strong React knowledge") {
		t.Fatal("expected the stored report")
	}
	if cur := env.store.Current(); cur == nil || cur.ID != "2" {
		t.Fatalf("expected record 2 to become current, got %+v", cur)
	}
}

func TestGenerateReport_Datastar(t *testing.T) {
	env := newTestEnv(t)
	id := completedRecord(t, env)
	client := env.loggedInClient(t)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/interview-reports/generate?id="+id, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Datastar-Request", "true")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST generate: %v", err)
	}
	body := readBody(t, resp)

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("expected an event stream, got %s", resp.Header.Get("Content-Type"))
	}
	for _, want := range []string{"report-content", "Strong problem-solving skills", "Report generated successfully."} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in the stream", want)
		}
	}
	if rec := env.store.GetInterviewByID(id); rec.Report == nil {
		t.Fatal("expected the report to be stored")
	}
}

func TestGenerateReport_DatastarBackendError(t *testing.T) {
	env := newTestEnv(t)
	id := completedRecord(t, env)
	env.backend.SetErr("generate_report", &domain.BackendError{Op: "generate_report", StatusCode: 404, Message: "Room not found"})

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/interview-reports/generate?id="+id, nil)
	req.Header.Set("Datastar-Request", "true")
	resp, err := env.loggedInClient(t).Do(req)
	if err != nil {
		t.Fatalf("POST generate: %v", err)
	}
	body := readBody(t, resp)

	if !strings.Contains(body, "flash-slot") || !strings.Contains(body, "Room not found") {
		t.Fatal("expected the error to be patched into the flash slot")
	}
	if rec := env.store.GetInterviewByID(id); rec.Report != nil {
		t.Fatal("no report should be stored")
	}
}

func TestHistoryFilter_Datastar(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testfixtures.SampleRecords()...)

	signals := url.QueryEscape(`{"query":"JOHN","status":"all"}`)
	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/interview-history/filter?datastar="+signals, nil)
	req.Header.Set("Datastar-Request", "true")
	resp, err := env.loggedInClient(t).Do(req)
	if err != nil {
		t.Fatalf("GET filter: %v", err)
	}
	body := readBody(t, resp)

	if !strings.Contains(body, "history-rows") || !strings.Contains(body, "John Doe") {
		t.Fatal("expected John Doe in the patched rows")
	}
	if strings.Contains(body, "Jane Smith") {
		t.Fatal("Jane Smith should be filtered out")
	}
}

func TestDownloadReport(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testfixtures.SampleRecords()...)

	resp, err := env.loggedInClient(t).Get(env.srv.URL + "/interview-reports/download?id=2")
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "report-2-2026-03-02.xlsx") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}

	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.ReportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) == 0 || rows[0][1] != "Jane Smith" {
		t.Fatalf("expected candidate in the first row, got %v", rows)
	}
}
