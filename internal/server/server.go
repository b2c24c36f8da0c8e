package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/sim"
)

// Progress reports the state of a running replay. *sim.Driver implements it.
type Progress interface {
	State() sim.State
	Published() int64
}

// Info describes the run being monitored.
type Info struct {
	RunID       string    `json:"run_id"`
	Topic       string    `json:"topic"`
	Transport   string    `json:"transport"`
	SpeedFactor float64   `json:"speed_factor"`
	Started     time.Time `json:"started"`
}

// Status is the body of GET /api/status.
type Status struct {
	Info
	State         string `json:"state"`
	Published     int64  `json:"published"`
	Batches       int    `json:"batches"`
	LastTimestamp string `json:"last_timestamp,omitempty"`
	Clients       int    `json:"clients"`
}

// Server is the live monitor for a replay.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	hub        *Hub
	info       Info
	progress   Progress
	log        logrus.FieldLogger
}

// New creates a monitor server. progress may be nil.
func New(addr string, hub *Hub, info Info, progress Progress, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		router:   mux.NewRouter(),
		hub:      hub,
		info:     info,
		progress: progress,
		log:      log,
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.hub.HandleWebSocket)
	s.router.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Status())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(DashboardHTML))
}

// Status snapshots the current run.
func (s *Server) Status() Status {
	batches, _, last := s.hub.Stats()
	st := Status{
		Info:          s.info,
		State:         sim.StateIdle.String(),
		Batches:       batches,
		LastTimestamp: last,
		Clients:       s.hub.ClientCount(),
	}
	if s.progress != nil {
		st.State = s.progress.State().String()
		st.Published = s.progress.Published()
	}
	return st
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
func (s *Server) StartOnListener(ln net.Listener) error {
	s.log.WithField("addr", ln.Addr().String()).Info("monitor listening")
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
