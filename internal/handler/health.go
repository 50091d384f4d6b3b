package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

// HandleHealthz reports that the server is up along with the size of the
// in-memory interview list. It answers 503 when the database cannot be
// reached.
func HandleHealthz(interviews *service.InterviewStore, database domain.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := database.Ping(ctx)
			cancel()
			if err != nil {
				slog.Error("failed to ping database", "error", err)
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, map[string]any{
			"status":     status,
			"interviews": len(interviews.List()),
			"pending":    len(interviews.Pending()),
		})
	}
}
