// Package web serves the switch's local HTTP API and status page.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/relay-switch/internal/activity"
	"github.com/sweeney/relay-switch/internal/status"
	"github.com/sweeney/relay-switch/internal/syncer"
)

// maxBody bounds request bodies.
const maxBody = 4096

// defaultLogLimit is how many activity entries GET /log returns.
const defaultLogLimit = 100

// Device is the switch as seen by HTTP handlers. Implementations run each
// call on the control loop.
type Device interface {
	// Hello applies body and returns the detail snapshot JSON.
	Hello(body []byte) ([]byte, error)
	// Set applies body.
	Set(body []byte) error
	// Value returns the compact light encoding.
	Value() string
	// BasicData applies body and returns offset, dst and time.
	BasicData(body []byte) (BasicData, error)
	// Logs returns the newest activity entries, oldest first.
	Logs(limit int) ([]activity.Entry, error)
	ClearLogs() error
	SetLogging(enabled bool)
	CheckForUpdate()
}

// BasicData is the reply to POST /basicdata.
type BasicData struct {
	Offset int    `json:"offset"`
	DST    bool   `json:"dst"`
	Time   *int64 `json:"time,omitempty"`
}

// Server serves the API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	device     Device
}

// New creates a Server. withMetrics exposes /metrics.
func New(addr string, tracker *status.Tracker, device Device, withMetrics bool) *Server {
	s := &Server{tracker: tracker, device: device}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /index.html", s.handleIndex)
	mux.HandleFunc("GET /index.json", s.handleJSON)
	mux.HandleFunc("POST /hello", s.handleHello)
	mux.HandleFunc("PUT /set", s.handleSet)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /basicdata", s.handleBasicData)
	mux.HandleFunc("GET /log", s.handleLog)
	mux.HandleFunc("DELETE /log", s.handleClearLog)
	mux.HandleFunc("POST /admin/log", s.handleLogging(true))
	mux.HandleFunc("DELETE /admin/log", s.handleLogging(false))
	mux.HandleFunc("POST /admin/update", s.handleUpdate)
	if withMetrics {
		mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
			metrics.WritePrometheus(w, true)
		})
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.tracker.Snapshot())
}

func (s *Server) handleJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	detail, err := s.device.Hello(body)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(detail)
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.device.Set(body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, struct{}{})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	value, _ := strconv.Atoi(s.device.Value())
	writeJSON(w, map[string]int{"state": value})
}

func (s *Server) handleBasicData(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	data, err := s.device.BasicData(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, data)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.device.Logs(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleClearLog(w http.ResponseWriter, _ *http.Request) {
	if err := s.device.ClearLogs(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogging(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.device.SetLogging(enabled)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, _ *http.Request) {
	s.device.CheckForUpdate()
	w.WriteHeader(http.StatusAccepted)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Write response failed")
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, syncer.ErrParse) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Error().Err(err).Msg("Request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
