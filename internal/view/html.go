// Package view renders the dashboard's HTML pages and datastar fragments.
// Components are written in the .templ files next to this one; the
// _templ.go files are regenerated with `templ generate`.
package view

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

const dateLayout = "Jan 2, 2006 3:04 PM"

// Flash is a one-shot notification shown at the top of the next page.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// Frame is the chrome shared by every signed-in page.
type Frame struct {
	UserName string
	Active   string
	Flash    *Flash
}

// LoginForm is the data re-rendered on a failed sign in.
type LoginForm struct {
	Email string
	Error string
}

// RegisterForm is the data re-rendered on a failed registration.
type RegisterForm struct {
	Name        string
	Email       string
	Error       string
	FieldErrors map[string]string
}

// QuestionsForm is the generate-questions form state.
type QuestionsForm struct {
	domain.QuestionRequest
	Error       string
	FieldErrors map[string]string
}

// ScheduleForm holds the raw schedule form values.
type ScheduleForm struct {
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	Date           string
	Time           string
	JobDescription string
	Error          string
	FieldErrors    map[string]string
}

// FeedbackForm holds the raw feedback form values.
type FeedbackForm struct {
	CommunicationRating string
	TechnicalRating     string
	Notes               string
	Error               string
	FieldErrors         map[string]string
}

type fieldOpts struct {
	Required     bool
	Placeholder  string
	Autocomplete string
	MinLength    int
}

type navLink struct{ path, label string }

var navLinks = []navLink{
	{"/dashboard", "Dashboard"},
	{"/generate-questions", "Generate Questions"},
	{"/schedule-interview", "Schedule Interview"},
	{"/interview-history", "Interview History"},
}

var (
	ratingValues    = []string{"1", "2", "3", "4", "5"}
	historyStatuses = []string{"all", "scheduled", "completed", "cancelled"}
)

// queryID encodes a record id for a query string. The result holds only
// unreserved characters and percent escapes, so it is also safe inside the
// single-quoted strings of datastar expressions.
func queryID(id string) string {
	return url.QueryEscape(id)
}

func analyticsStream(id string) string {
	return "@get('/interview-session/analytics?id=" + queryID(id) + "')"
}

func reportGenerateURL(id string) string {
	return "/interview-reports/generate?id=" + queryID(id)
}

type labelled struct{ label, value string }

func dashboardCards(stats service.DashboardStats) []labelled {
	return []labelled{
		{"Scheduled", strconv.Itoa(stats.Scheduled)},
		{"Completed", strconv.Itoa(stats.Completed)},
		{"Total Interviews", strconv.Itoa(stats.Total)},
		{"Average Rating", stats.AverageRating},
	}
}

func analyticsMeters(a service.Analytics) []labelled {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
	return []labelled{
		{"Communication", f(a.Communication)},
		{"Confidence", f(a.Confidence)},
		{"Clarity", f(a.Clarity)},
		{"Technical Accuracy", f(a.TechnicalAccuracy)},
	}
}

func questionMeta(q domain.Question) string {
	switch {
	case q.Category != "" && q.Difficulty != "":
		return q.Category + " · " + q.Difficulty
	case q.Category != "":
		return q.Category
	}
	return q.Difficulty
}

func averageRating(r *domain.Record) string {
	if r.Feedback == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", r.Feedback.Average())
}

func historyStatus(filter service.HistoryFilter) string {
	if filter.Status == "" {
		return "all"
	}
	return filter.Status
}

func historySignals(query, status string) string {
	signals, _ := json.Marshal(map[string]string{"query": query, "status": status})
	return string(signals)
}
