// Package api exposes the pipeline over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs request details and latency.
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// corsMiddleware adds CORS headers for dashboard clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Apply middleware
	r.Use(loggingMiddleware(handler.logger))
	r.Use(corsMiddleware)

	// Register routes
	r.HandleFunc("/healthz", handler.HandleHealth).Methods("GET")
	r.HandleFunc("/snapshot", handler.HandleSnapshot).Methods("GET")
	r.HandleFunc("/snapshot/outliers", handler.HandleOutliers).Methods("GET")
	r.HandleFunc("/rebuild", handler.HandleRebuild).Methods("POST", "OPTIONS")
	r.HandleFunc("/reference/retrain", handler.HandleRetrain).Methods("POST", "OPTIONS")
	r.HandleFunc("/references", handler.HandleListReferences).Methods("GET")
	r.HandleFunc("/references/{name}", handler.HandleGetReference).Methods("GET")
	r.HandleFunc("/references/{name}", handler.HandleDeleteReference).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/references/{name}/load", handler.HandleLoadReference).Methods("POST", "OPTIONS")
	r.HandleFunc("/novelty/score", handler.HandleScore).Methods("POST", "OPTIONS")
	r.HandleFunc("/aggregates/markets", handler.HandleMarkets).Methods("POST", "OPTIONS")
	r.HandleFunc("/aggregates/time", handler.HandleTime).Methods("POST", "OPTIONS")

	return r
}
