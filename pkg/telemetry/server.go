// Package telemetry exposes encoder readings over HTTP and WebSocket.
// REST endpoints serve one-shot status queries; WebSocket clients get
// readings pushed at a fixed report period. The server never touches
// the encoder session directly, it only asks a Sampler for snapshots,
// so the session's single-writer discipline stays with the daemon.
package telemetry

import (
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/seanybaggins/es38/pkg/log"
	"github.com/seanybaggins/es38/pkg/metrics"
)

// Reading is one encoder observation as served to clients.
type Reading struct {
	TimestampMS   uint32  `json:"timestamp_ms"`
	Counts        int32   `json:"counts"`
	CountsPerRev  uint16  `json:"counts_per_rev"`
	Degrees       float64 `json:"degrees"`
	Radians       float64 `json:"radians"`
	DegreesPerSec float64 `json:"degrees_per_sec"`
	RadiansPerSec float64 `json:"radians_per_sec"`
	RateValid     bool    `json:"rate_valid"`
	RateError     string  `json:"rate_error,omitempty"`
}

// Sampler produces encoder readings for the server. The daemon's
// implementation snapshots its session under its own lock.
type Sampler interface {
	Snapshot() Reading
}

// Config holds server configuration.
type Config struct {
	// Addr is the HTTP listen address (e.g. ":7180").
	Addr string

	// ReportPeriod is the WebSocket push period.
	ReportPeriod time.Duration

	// Sampler supplies readings.
	Sampler Sampler

	// Registry, when set, is served at /metrics.
	Registry *metrics.Registry

	// Logger, when nil, defaults to a "telemetry" component logger.
	Logger *log.Logger

	// AccessLog, when set, receives one combined-format line per
	// HTTP request.
	AccessLog io.Writer
}

// Server serves encoder readings.
type Server struct {
	sampler      Sampler
	addr         string
	reportPeriod time.Duration
	registry     *metrics.Registry
	logger       *log.Logger
	accessLog    io.Writer

	httpServer *http.Server
	upgrader   websocket.Upgrader

	clientMu sync.RWMutex
	clients  map[string]*wsClient

	running   atomic.Bool
	startTime time.Time
}

// New creates a telemetry server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New("telemetry")
	}
	reportPeriod := cfg.ReportPeriod
	if reportPeriod <= 0 {
		reportPeriod = 500 * time.Millisecond
	}
	return &Server{
		sampler:      cfg.Sampler,
		addr:         cfg.Addr,
		reportPeriod: reportPeriod,
		registry:     cfg.Registry,
		logger:       logger,
		accessLog:    cfg.AccessLog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:   make(map[string]*wsClient),
		startTime: time.Now(),
	}
}

// Router builds the HTTP routing table. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/info", s.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)
	if s.registry != nil {
		r.Handle("/metrics", s.registry.Handler()).Methods(http.MethodGet)
	}

	var h http.Handler = r
	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}
	return handlers.RecoveryHandler()(h)
}

// Start serves until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}
	s.running.Store(true)
	s.logger.Info("listening on %s", s.addr)

	go s.broadcastLoop()

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop disconnects all clients and closes the listener.
func (s *Server) Stop() error {
	s.running.Store(false)

	s.clientMu.Lock()
	for _, client := range s.clients {
		client.close()
	}
	s.clients = make(map[string]*wsClient)
	s.clientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// ClientCount reports connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sampler.Snapshot())
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"service":          "es38",
		"uptime_sec":       time.Since(s.startTime).Seconds(),
		"report_period_ms": s.reportPeriod.Milliseconds(),
		"clients":          s.ClientCount(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{
		id:     uuid.New().String(),
		conn:   conn,
		sendCh: make(chan Reading, 16),
		done:   make(chan struct{}),
		logger: s.logger,
	}

	s.clientMu.Lock()
	s.clients[client.id] = client
	s.clientMu.Unlock()

	s.logger.WithField("client", client.id).Info("stream client connected")

	go client.writePump()
	go func() {
		client.readPump()
		s.removeClient(client)
	}()

	// Seed the stream so a new client need not wait a full period.
	client.send(s.sampler.Snapshot())
}

func (s *Server) removeClient(c *wsClient) {
	s.clientMu.Lock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		s.logger.WithField("client", c.id).Info("stream client disconnected")
	}
	s.clientMu.Unlock()
	c.close()
}

// broadcastLoop pushes readings to every connected client.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(s.reportPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if !s.running.Load() {
			return
		}
		reading := s.sampler.Snapshot()

		s.clientMu.RLock()
		for _, client := range s.clients {
			client.send(reading)
		}
		s.clientMu.RUnlock()
	}
}
