package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/handler"
	"github.com/msomdec/recruit-dashboard/internal/metrics"
	"github.com/msomdec/recruit-dashboard/internal/repository/sqlite"
	"github.com/msomdec/recruit-dashboard/internal/service"
	"github.com/msomdec/recruit-dashboard/internal/testfixtures"
)

const testJWTSecret = "test-secret-for-handler-tests"

type testEnv struct {
	srv     *httptest.Server
	backend *testfixtures.Backend
	store   *service.InterviewStore
	clock   *testfixtures.Clock
	tokens  *service.IdentityTokens
	tickers *testfixtures.TickerFactory
	metrics *metrics.Metrics
	db      *sqlite.DB
}

type envOption func(*handler.Config)

func withLimiter(l *service.TokenBucket) envOption {
	return func(c *handler.Config) { c.Limiter = l }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		backend: testfixtures.NewBackend(),
		clock:   testfixtures.NewClock(time.Time{}),
		tokens:  service.NewIdentityTokens(testJWTSecret, time.Hour),
		tickers: testfixtures.NewTickerFactory(),
		metrics: metrics.New(),
	}
	env.store = service.NewInterviewStore(env.backend,
		service.WithClock(env.clock.Now),
		service.WithLogger(discardLogger()),
		service.WithStatusObserver(env.metrics),
	)
	env.db = newTestDB(t)

	cfg := handler.Config{
		Interviews: env.store,
		Auth:       env.backend,
		Resumes:    service.NewResumeService(env.db.Resumes(), env.db.FileStore(), 1<<20),
		Database:   env.db,
		Sessions:   handler.NewCookieSessions(env.tokens, false),
		Metrics:    env.metrics,
		NewSimulator: func() *service.AnalyticsSimulator {
			return &service.AnalyticsSimulator{
				StartDelay: time.Second,
				Interval:   time.Second,
				Rand:       testfixtures.NewSequenceRand(0.5).Float64,
				NewTicker:  env.tickers.New,
			}
		},
		Logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	env.srv = httptest.NewServer(handler.NewRouter(cfg))
	t.Cleanup(env.srv.Close)
	return env
}

// client returns a cookie-keeping client that does not follow redirects.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// loggedInClient signs in as the backend's demo account.
func (e *testEnv) loggedInClient(t *testing.T) *http.Client {
	t.Helper()
	c := e.client(t)
	resp, err := c.PostForm(e.srv.URL+"/login", url.Values{
		"email":    {"demo@example.com"},
		"password": {"password123"},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d", resp.StatusCode)
	}
	return c
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func get(t *testing.T, c *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	return resp, readBody(t, resp)
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	return resp, readBody(t, resp)
}

func postJSON(t *testing.T, c *http.Client, u, body string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Post(u, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	return resp, readBody(t, resp)
}

// scheduleForm is a valid scheduling form three days after the fixture
// clock's now.
func scheduleForm() url.Values {
	return url.Values{
		"candidateName":  {"Jane Smith"},
		"candidateEmail": {"jane@example.com"},
		"candidatePhone": {"555-987-6543"},
		"date":           {testfixtures.ReferenceTime().AddDate(0, 0, 3).Format("2006-01-02")},
		"time":           {"10:30"},
		"jobDescription": {"Full Stack Developer with Node.js and React experience."},
	}
}

func newLimiter(t *testing.T, capacity float64) *service.TokenBucket {
	t.Helper()
	l := service.NewTokenBucket(0.001, capacity)
	t.Cleanup(l.Stop)
	return l
}

var errBackendDown = &domain.BackendError{Op: "generate_report", StatusCode: 503, Message: "Report service unavailable"}
