package service

import (
	"strconv"
	"strings"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

const (
	dashboardUpcoming = 3
	dashboardRecent   = 5
)

// DashboardStats summarises the interview list for the dashboard.
type DashboardStats struct {
	Scheduled     int
	Completed     int
	Total         int
	AverageRating string
	Upcoming      []*domain.Record
	Recent        []*domain.Record
}

// ComputeDashboard counts records by status and averages the ratings of
// completed interviews. A completed record without feedback counts as 0.
func ComputeDashboard(records []*domain.Record) DashboardStats {
	stats := DashboardStats{Total: len(records), AverageRating: "N/A"}
	var sum float64
	for _, r := range records {
		switch r.Status {
		case domain.StatusScheduled:
			stats.Scheduled++
			if len(stats.Upcoming) < dashboardUpcoming {
				stats.Upcoming = append(stats.Upcoming, r)
			}
		case domain.StatusCompleted:
			stats.Completed++
			if r.Feedback != nil {
				sum += r.Feedback.Average()
			}
			if len(stats.Recent) < dashboardRecent {
				stats.Recent = append(stats.Recent, r)
			}
		}
	}
	if stats.Completed > 0 {
		stats.AverageRating = strconv.FormatFloat(sum/float64(stats.Completed), 'f', 1, 64)
	}
	return stats
}

// HistoryFilter selects records for the interview history page.
type HistoryFilter struct {
	Query  string
	Status string // "all" or a domain.Status
}

// FilterHistory returns the records whose candidate name or email contains
// the query (case-insensitive) and whose status matches.
func FilterHistory(records []*domain.Record, f HistoryFilter) []*domain.Record {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status == "" {
		status = "all"
	}

	out := make([]*domain.Record, 0, len(records))
	for _, r := range records {
		if status != "all" && string(r.Status) != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(r.CandidateName), query) &&
			!strings.Contains(strings.ToLower(r.CandidateEmail), query) {
			continue
		}
		out = append(out, r)
	}
	return out
}
