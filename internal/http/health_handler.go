package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// Pinger checks datastore connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the server can reach its datastore.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func newHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: defaultLogger(logger)}
}

// Check responds with a plain-text status. The raw datastore error is shown
// here and nowhere else.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	err := fmt.Errorf("no datastore configured")
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err = h.db.Ping(ctx)
		cancel()
	}
	if err != nil {
		handlerLogger(r.Context(), h.logger, "HealthHandler", "Check").
			ErrorContext(r.Context(), "datastore ping failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Server is running, but database connection failed: %v", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Server is running and database connection is successful!")
}
