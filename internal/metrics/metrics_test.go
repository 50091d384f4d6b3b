package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetrics_BackendCalls(t *testing.T) {
	m := metrics.New()
	m.ObserveBackendCall("generate_report", 200, 150*time.Millisecond)
	m.ObserveBackendCall("generate_report", 0, time.Second)

	body := scrape(t, m)
	for _, want := range []string{
		`recruit_backend_calls_total{op="generate_report",status="200"} 1`,
		`recruit_backend_calls_total{op="generate_report",status="error"} 1`,
		`recruit_backend_call_duration_seconds_count{op="generate_report"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output", want)
		}
	}
}

func TestMetrics_RecordCounts(t *testing.T) {
	m := metrics.New()
	m.SetRecordCounts(map[domain.Status]int{domain.StatusScheduled: 3, domain.StatusCompleted: 1})
	m.SetRecordCounts(map[domain.Status]int{domain.StatusScheduled: 2, domain.StatusCompleted: 1})

	body := scrape(t, m)
	if !strings.Contains(body, `recruit_interview_records{status="scheduled"} 2`) {
		t.Fatal("expected scheduled gauge to be overwritten")
	}
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/reports/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reports/"+id, nil))
	}

	body := scrape(t, m)
	if !strings.Contains(body, `recruit_http_requests_total{code="418",method="GET",route="/reports/{id}"} 2`) {
		t.Fatalf("expected route pattern label, got:\n%s", body)
	}
}
