// Package httpapi is the gateway's HTTP surface: request parsing, routing,
// response serialization, and the health/metrics endpoints. Its only
// non-trivial duty is dispatching into the per-agent serialization
// primitive inside internal/agentstate.
package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ocx/compliance-gateway/internal/agentstate"
)

// Server exposes the compliance gateway over REST/JSON.
type Server struct {
	gateway *agentstate.Gateway
	logger  *log.Logger
}

// NewServer wires the HTTP surface around an already-constructed Gateway.
func NewServer(gw *agentstate.Gateway) *Server {
	return &Server{
		gateway: gw,
		logger:  log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

// Router builds the gorilla/mux router for this server. Exposed
// separately so tests can drive it with httptest without binding a real
// listener.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// Permissive dev CORS. Not a production security boundary.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/register_protocol_for_agent", s.handleRegisterProtocol).Methods(http.MethodPost)
	r.HandleFunc("/report", s.handleSubmitReport).Methods(http.MethodPost)
	r.HandleFunc("/send", s.handleSendMessage).Methods(http.MethodPost)
	r.HandleFunc("/agents/{agent_id}", s.handleGetAgent).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
