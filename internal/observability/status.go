package observability

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status reports the live state of the client over the metrics endpoint
type Status struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Version      string `json:"version"`
	Timestamp    string `json:"timestamp"`
	SessionState string `json:"session_state,omitempty"`
	BufferDepth  int    `json:"buffer_depth,omitempty"`
}

// StatusFunc reports the current session state and buffer depth.
// It is injected to avoid an import cycle with the engine.
type StatusFunc func() (sessionState string, bufferDepth int)

// StatusHandler handles status requests
func StatusHandler(statusFn StatusFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{
			Status:    "ok",
			Service:   "genmusic",
			Version:   "1.0.0",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		if statusFn != nil {
			status.SessionState, status.BufferDepth = statusFn()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(status)
	}
}

// ServeMetrics starts the metrics and status HTTP listener on addr.
// It returns the server so the caller can shut it down.
func ServeMetrics(addr string, statusFn StatusFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", StatusHandler(statusFn))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger := GetLogger()
	go func() {
		logger.Info().Str("addr", addr).Msg("Metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Metrics endpoint failed")
		}
	}()

	return srv
}
