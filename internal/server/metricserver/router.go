package metricserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/busstate-go/internal/telemetry/logger"
)

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	MetricsPath    string
	MetricsHandler http.Handler
	// State returns the value served at /debug/state. Nil disables the route.
	State  func() any
	Logger logger.Logger
}

// NewRouter builds the handler tree with the middleware chain applied.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	path := cfg.MetricsPath
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	if cfg.MetricsHandler != nil {
		mux.Handle("GET "+path, cfg.MetricsHandler)
	}
	mux.HandleFunc("GET /healthz", handleHealth)
	if cfg.State != nil {
		mux.HandleFunc("GET /debug/state", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, http.StatusOK, cfg.State())
		})
	}

	return Chain(mux,
		RequestID(),
		Recover(),
		AccessLog(log),
	)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L(r.Context()).Warn("encode response", "error", err)
	}
}
