package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/devactivity/digestfile/internal/digestfile"
)

type ServerConfig struct {
	// StaticDir is the root for the GET fallback. Empty disables static
	// serving (every GET outside the API returns 404).
	StaticDir string
	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

type Server struct {
	store *digestfile.Store
	cfg   ServerConfig
}

func NewServer(store *digestfile.Store) *Server {
	return NewServerWithConfig(store, ServerConfig{})
}

func NewServerWithConfig(store *digestfile.Store, cfg ServerConfig) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Server{store: store, cfg: cfg}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if r.URL.Path == "/v1/events" && r.Method == http.MethodPost {
		s.handleIngestEvent(w, r)
		return
	}
	if r.URL.Path == "/v1/events/stream" && r.Method == http.MethodGet {
		s.handleEventStream(w, r)
		return
	}
	if r.URL.Path == "/v1/flush" && r.Method == http.MethodPost {
		s.handleFlush(w, r)
		return
	}
	if source, ok := strings.CutPrefix(r.URL.Path, "/v1/webhooks/"); ok && r.Method == http.MethodPost {
		s.handleWebhook(w, r, source)
		return
	}
	if r.Method == http.MethodGet {
		s.handleStatic(w, r)
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readRequestBody(w, r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	event, err := digestfile.ParseEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	s.store.IngestEvent(event)
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request, source string) {
	body, ok := s.readRequestBody(w, r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid Webhook Payload")
		return
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "Invalid Webhook Payload")
		return
	}
	if _, err := s.store.IngestWebhook(source, payload); err != nil {
		if errors.Is(err, digestfile.ErrUnknownSource) {
			writeError(w, http.StatusBadRequest, "Unknown source")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid Webhook Payload")
		return
	}
	// Adapter rejection is a successful no-op, not an error.
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	flushed := s.store.Flush()
	if flushed == nil {
		flushed = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"flushedProjects": flushed})
}

func (s *Server) readRequestBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
