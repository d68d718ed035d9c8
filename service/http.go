package service

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/codes"
)

// statusClientClosedRequest is the nginx convention for requests the client
// gave up on.
const statusClientClosedRequest = 499

// Handler serves the JSON endpoints. /metrics is only mounted when gatherer
// is not nil.
func (s *Server) Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/calculate", corsMiddleware(s.calculateHTTP))
	mux.HandleFunc("/apply", corsMiddleware(s.applyHTTP))
	mux.HandleFunc("/session/clear", corsMiddleware(s.clearHTTP))
	mux.HandleFunc("/health", corsMiddleware(s.healthHTTP))
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// corsMiddleware adds CORS headers to allow browser clients
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// POST /calculate
func (s *Server) calculateHTTP(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.calculate(r.Context(), &req)
	s.respond(w, resp, err)
}

// POST /apply
func (s *Server) applyHTTP(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.apply(r.Context(), &req)
	s.respond(w, resp, err)
}

// POST /session/clear
func (s *Server) clearHTTP(w http.ResponseWriter, r *http.Request) {
	var req ClearRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.clear(&req)
	s.respond(w, resp, err)
}

// GET /health
func (s *Server) healthHTTP(w http.ResponseWriter, r *http.Request) {
	sessions := 0
	if s.Sessions != nil {
		sessions = s.Sessions.Len()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"sessions": sessions,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger().Debug("invalid request body", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, resp interface{}, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	switch c := code(err); c {
	case codes.Canceled, codes.DeadlineExceeded:
		writeJSON(w, httpStatus(c), map[string]interface{}{
			"cancelled": true,
			"reason":    c.String(),
		})
	default:
		writeJSON(w, httpStatus(c), map[string]string{"error": err.Error()})
	}
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Canceled:
		return statusClientClosedRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("writing response", slog.Any("error", err))
	}
}
