package httpapi

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// handleStatic serves the dashboard assets for any GET outside the API.
// Content-Type comes from a fixed extension table; unmatched extensions are
// served as text/html so bare routes resolve to pages.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.cfg.StaticDir == "" {
		http.NotFound(w, r)
		return
	}
	name := path.Clean("/" + r.URL.Path)
	if name == "/" {
		name = "/index.html"
	}
	target := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(name))
	if !withinBase(s.cfg.StaticDir, target) {
		http.NotFound(w, r)
		return
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			http.NotFound(w, r)
			return
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && strings.Contains(pathErr.Error(), "is a directory") {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", staticContentType(target))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func staticContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js":
		return "text/javascript"
	case ".css":
		return "text/css"
	case ".json":
		return "application/json"
	default:
		return "text/html"
	}
}

func withinBase(base, candidate string) bool {
	rel, err := filepath.Rel(base, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
