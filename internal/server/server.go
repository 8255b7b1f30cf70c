// Package server exposes the effect to a browser: REST endpoints for the
// parameters, presets and state, and a websocket that streams scope frames
// and meters at the display refresh rate.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/processor"
	"github.com/cwbudde/parcomp/effect/scope"
)

// ErrNilStore is returned by New without a parameter store.
var ErrNilStore = errors.New("server requires a parameter store")

// Source reports the processor meters. *processor.Processor implements it.
type Source interface {
	Meters() processor.Meters
	Faults() processor.Faults
}

// Frame is one websocket message.
type Frame struct {
	Waveform *scope.Waveform   `json:"waveform,omitempty"`
	Spectrum []float64         `json:"spectrum,omitempty"`
	Meters   *processor.Meters `json:"meters,omitempty"`
	Faults   *processor.Faults `json:"faults,omitempty"`
}

// Server serves the control API and the scope stream.
type Server struct {
	store    *params.Store
	scope    *scope.Scope
	source   Source
	interval time.Duration

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithScope streams waveform and spectrum frames from sc.
func WithScope(sc *scope.Scope) Option {
	return func(s *Server) { s.scope = sc }
}

// WithSource adds meters and fault counters to every frame.
func WithSource(src Source) Option {
	return func(s *Server) { s.source = src }
}

// WithFrameRate sets the websocket frame rate in Hz.
func WithFrameRate(hz float64) Option {
	return func(s *Server) {
		if hz > 0 {
			s.interval = time.Duration(float64(time.Second) / hz)
		}
	}
}

// New creates a server controlling store.
func New(store *params.Store, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	s := &Server{
		store:    store,
		interval: time.Second / scope.RepaintRate,
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/params", s.handleListParams)
	mux.HandleFunc("PUT /api/params", s.handleSetParams)
	mux.HandleFunc("GET /api/params/{name}", s.handleGetParam)
	mux.HandleFunc("PUT /api/params/{name}", s.handleSetParam)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("POST /api/presets/{name}", s.handleApplyPreset)
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("PUT /api/state", s.handlePutState)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.broadcastLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"addr":     addr,
	}).Info("Scope server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeClients()
		if err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		s.closeClients()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	}
}

// Frame captures the current scope and meter state.
func (s *Server) Frame() (Frame, error) {
	var f Frame

	if s.scope != nil {
		w := s.scope.Waveform()
		f.Waveform = &w

		bins, err := s.scope.Spectrum()
		if err != nil {
			return Frame{}, err
		}
		f.Spectrum = bins
	}

	if s.source != nil {
		m := s.source.Meters()
		faults := s.source.Faults()
		f.Meters = &m
		f.Faults = &faults
	}
	return f, nil
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.clientCount() == 0 {
				continue
			}

			f, err := s.Frame()
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "broadcastLoop",
					"error":    err.Error(),
				}).Warn("Failed to capture frame")
				continue
			}
			data, err := json.Marshal(f)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "broadcastLoop",
					"error":    err.Error(),
				}).Warn("Failed to encode frame")
				continue
			}
			s.broadcast(data)
		}
	}
}

// broadcast queues data for every client. Clients that fall behind are
// dropped.
func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			delete(s.clients, c)
			close(c.send)
			logrus.WithFields(logrus.Fields{
				"function": "broadcast",
				"clients":  len(s.clients),
			}).Debug("Dropped slow websocket client")
		}
	}
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}
