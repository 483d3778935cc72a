// Package server provides the local HTTP API and status page.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

var log = logrus.WithField("component", "server")

//go:embed web
var webFS embed.FS

const shutdownTimeout = 2 * time.Second

// Status is a snapshot of the running pipeline.
type Status struct {
	Enabled   bool           `json:"enabled"`
	Dragging  bool           `json:"dragging"`
	Tracking  bool           `json:"tracking"`
	FPS       int            `json:"fps"`
	Frames    uint64         `json:"frames"`
	Profile   string         `json:"profile,omitempty"`
	LastEvent *gesture.Event `json:"last_event,omitempty"`
}

// Controller is the running application as seen by the API.
type Controller interface {
	api.Activator
	Status() Status
	SetEnabled(enabled bool)
	// Subscribe returns a stream of fired gestures and a function that
	// ends the subscription.
	Subscribe() (<-chan gesture.Event, func())
}

// Config holds the server configuration.
type Config struct {
	// StaticDir replaces the built-in status page when set.
	StaticDir  string
	Store      *store.Store
	Controller Controller
}

// Server is the HTTP server for the Mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	events *EventsHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Controller != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)

		s.events = NewEventsHandler(s.config.Controller.Subscribe())
		s.mux.Handle("/api/events", s.events)
	}

	if s.config.Store != nil {
		var activator api.Activator
		if s.config.Controller != nil {
			activator = s.config.Controller
		}
		profiles := api.NewProfileHandler(s.config.Store, activator)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	} else {
		sub, _ := fs.Sub(webFS, "web")
		s.mux.Handle("/", http.FileServer(http.FS(sub)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.start).Round(time.Second).String(),
		"clients": s.EventClients(),
	})
}

// EventClients is the number of connected event stream clients.
func (s *Server) EventClients() int {
	if s.events == nil {
		return 0
	}
	return s.events.ClientCount()
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled reports or switches gesture control.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
			return
		}
		s.config.Controller.SetEnabled(*req.Enabled)
		log.WithField("enabled", *req.Enabled).Info("gesture control toggled via API")
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.Controller.Status().Enabled})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Debug("failed to encode response")
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects event stream clients.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
}
