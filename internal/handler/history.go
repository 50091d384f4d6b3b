package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/recruit-dashboard/internal/export"
	"github.com/msomdec/recruit-dashboard/internal/service"
	"github.com/msomdec/recruit-dashboard/internal/view"
)

type historySignals struct {
	Query  string `json:"query"`
	Status string `json:"status"`
}

func historyFilterFromQuery(r *http.Request) service.HistoryFilter {
	return service.HistoryFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
	}
}

// HandleHistory renders every interview, optionally filtered by the q and
// status query parameters.
func (h *InterviewHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	filter := historyFilterFromQuery(r)
	records := service.FilterHistory(h.interviews.List(), filter)
	view.HistoryPage(frame(w, r), records, filter).Render(r.Context(), w)
}

// HandleHistoryFilter patches the history table from the page's search
// signals.
// GET /interview-history/filter
func (h *InterviewHandler) HandleHistoryFilter(w http.ResponseWriter, r *http.Request) {
	var signals historySignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	records := service.FilterHistory(h.interviews.List(), service.HistoryFilter{
		Query:  signals.Query,
		Status: signals.Status,
	})
	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(view.HistoryRows(records)); err != nil {
		slog.Error("patch history rows", "error", err)
	}
}

// HandleHistoryExport downloads the filtered history as a workbook.
func (h *InterviewHandler) HandleHistoryExport(w http.ResponseWriter, r *http.Request) {
	records := service.FilterHistory(h.interviews.List(), historyFilterFromQuery(r))
	now := h.now()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename("interviews", now)))
	if err := export.WriteHistory(w, records, now); err != nil {
		slog.Error("write history workbook", "error", err)
	}
}
