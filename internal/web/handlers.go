package web

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"csvdeck/internal/manifest"
)

// APIResponse is the envelope of every JSON answer.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}
	m, err := s.readManifest()
	if err != nil {
		data["manifest"] = "unavailable"
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
		return
	}
	data["manifest"] = "ok"
	data["datasets"] = m.FileCount
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) readManifest() (*manifest.Manifest, error) {
	f, err := os.Open(joinDir(s.publicDir, s.manifestName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return manifest.Decode(f)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Title:        "Datasets",
		Base:         s.base,
		ManifestName: s.manifestName,
	}
	m, err := s.readManifest()
	switch {
	case err == nil:
		page.GeneratedAt = m.GeneratedAt.Time
		page.Files = m.Files
	case errors.Is(err, fs.ErrNotExist):
		page.Error = "No manifest yet. Run csvdeck manifest to generate one."
	default:
		s.logger.Warn("manifest unreadable", "error", err)
		page.Error = "The manifest could not be read."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		s.logger.Error("template error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// serveFile sends dir/rel as is. Directories and paths leaving dir are 404.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, dir, rel string) {
	if !fs.ValidPath(rel) || rel == "." || strings.HasSuffix(rel, "/") {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(joinDir(dir, rel))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("open failed", "path", rel, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	if strings.EqualFold(path.Ext(rel), ".csv") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
