package handler_test

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/export"
	"github.com/msomdec/recruit-dashboard/internal/handler"
)

func TestIntegration_RegisterLoginScheduleReviewLogout(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)
	base := env.srv.URL

	// 1. Register a new account. Registration does not sign in.
	resp, _ := postForm(t, client, base+"/register", url.Values{
		"name":     {"Integration User"},
		"email":    {"integ@example.com"},
		"password": {"password123"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("register: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("register: expected redirect to /login, got %s", loc)
	}
	_, body := get(t, client, base+"/login")
	if !strings.Contains(body, "Registration successful. Please sign in.") {
		t.Fatal("login page should show the registration flash")
	}

	// 2. Sign in.
	resp, _ = postForm(t, client, base+"/login", url.Values{
		"email":    {"integ@example.com"},
		"password": {"password123"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("login: expected redirect to /dashboard, got %s", loc)
	}

	// 3. Dashboard greets the user once.
	resp, body = get(t, client, base+"/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Welcome back, Integration User!") {
		t.Fatal("dashboard should show the welcome flash")
	}
	_, body = get(t, client, base+"/dashboard")
	if strings.Contains(body, "Welcome back, Integration User!") {
		t.Fatal("flash should only be shown once")
	}

	// 4. Schedule an interview.
	resp, body = postForm(t, client, base+"/schedule-interview", scheduleForm())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("schedule: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Interview scheduled successfully.") || !strings.Contains(body, "room-1-candidate") {
		t.Fatal("schedule response should confirm the interview and show its links")
	}
	rec := env.store.GetInterviewByID("room-1")
	if rec == nil || rec.Status != domain.StatusScheduled {
		t.Fatalf("expected scheduled record room-1, got %+v", rec)
	}

	// 5. Open the live session.
	resp, body = get(t, client, base+"/interview-session?id=room-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "/interview-session/analytics?id=room-1") {
		t.Fatal("session page should load the analytics stream")
	}

	// 6. Submit feedback; this completes the interview.
	resp, _ = postForm(t, client, base+"/feedback?id=room-1", url.Values{
		"communicationRating": {"4"},
		"technicalRating":     {"5"},
		"notes":               {"Great React depth."},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("feedback: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/interview-reports?id=room-1" {
		t.Fatalf("feedback: expected redirect to report, got %s", loc)
	}
	if env.backend.CallCount("generate_report") != 0 {
		t.Fatal("submitting feedback must not generate a report")
	}

	// 7. Generate the report with a plain form post.
	resp, body = get(t, client, base+"/interview-reports?id=room-1")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Generate Report") {
		t.Fatalf("report page: expected generate form, status %d", resp.StatusCode)
	}
	resp, _ = postForm(t, client, base+"/interview-reports/generate?id=room-1", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("generate report: expected 303, got %d", resp.StatusCode)
	}
	_, body = get(t, client, base+"/interview-reports?id=room-1")
	if !strings.Contains(body, "Strong problem-solving skills") {
		t.Fatal("report page should show the generated report")
	}

	// 8. History lists and exports the interview.
	_, body = get(t, client, base+"/interview-history?q=jane")
	if !strings.Contains(body, "Jane Smith") {
		t.Fatal("history should list the interview")
	}
	resp, err := client.Get(base + "/interview-history/export")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != export.ContentType {
		t.Fatalf("export: expected %s, got %s", export.ContentType, ct)
	}
	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	name, err := f.GetCellValue(export.HistorySheet, "B2")
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if name != "Jane Smith" {
		t.Fatalf("export: expected Jane Smith in B2, got %q", name)
	}

	// 9. Sign out; pages are protected again.
	resp, _ = postForm(t, client, base+"/logout", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout: expected 303, got %d", resp.StatusCode)
	}
	resp, _ = get(t, client, base+"/dashboard")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("after logout: expected redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestIntegration_LoginFailureKeepsUserSignedOut(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)

	resp, body := postForm(t, client, env.srv.URL+"/login", url.Values{
		"email":    {"demo@example.com"},
		"password": {"wrong"},
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Invalid credentials") {
		t.Fatal("expected the backend's message on the login page")
	}

	resp, _ = get(t, client, env.srv.URL+"/dashboard")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect to login, got %d", resp.StatusCode)
	}
}

func TestIntegration_RootRedirects(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := get(t, env.client(t), env.srv.URL+"/")
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("anonymous: expected /login, got %s", loc)
	}
	resp, _ = get(t, env.loggedInClient(t), env.srv.URL+"/")
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("signed in: expected /dashboard, got %s", loc)
	}
}

func TestIntegration_RateLimitedLogin(t *testing.T) {
	limiter := newLimiter(t, 1)
	env := newTestEnv(t, withLimiter(limiter))
	client := env.client(t)

	creds := url.Values{"email": {"demo@example.com"}, "password": {"wrong"}}
	if resp, _ := postForm(t, client, env.srv.URL+"/login", creds); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("first attempt: expected 401, got %d", resp.StatusCode)
	}
	if resp, _ := postForm(t, client, env.srv.URL+"/login", creds); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second attempt: expected 429, got %d", resp.StatusCode)
	}
}

func TestIntegration_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	env := newTestEnv(t, withLimiter(newLimiter(t, 2)))
	creds := url.Values{"email": {"demo@example.com"}, "password": {"wrong"}}

	for i := 1; i <= 4; i++ {
		req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/login", strings.NewReader(creds.Encode()))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))

		resp, err := env.client(t).Do(req)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		resp.Body.Close()

		want := http.StatusUnauthorized
		if i > 2 {
			want = http.StatusTooManyRequests
		}
		if resp.StatusCode != want {
			t.Fatalf("attempt %d: expected %d, got %d", i, want, resp.StatusCode)
		}
	}
}

func TestIntegration_RateLimitTrustedProxy(t *testing.T) {
	trust := func(c *handler.Config) { c.TrustProxyHeaders = true }
	env := newTestEnv(t, withLimiter(newLimiter(t, 1)), trust)
	creds := url.Values{"email": {"demo@example.com"}, "password": {"wrong"}}

	send := func(ip string) int {
		req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/login", strings.NewReader(creds.Encode()))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", ip)
		resp, err := env.client(t).Do(req)
		if err != nil {
			t.Fatalf("POST /login: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := send("203.0.113.1"); code != http.StatusUnauthorized {
		t.Fatalf("first client: expected 401, got %d", code)
	}
	if code := send("203.0.113.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client again: expected 429, got %d", code)
	}
	if code := send("203.0.113.2"); code != http.StatusUnauthorized {
		t.Fatalf("second client behind the proxy: expected 401, got %d", code)
	}
}
