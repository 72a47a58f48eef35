// Package web hosts the static site: the manifest, the raw CSV files and an
// index page, all mounted under the configured base path. It never parses or
// transforms a dataset.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"csvdeck/internal/config"
	"csvdeck/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	base         string
	publicDir    string
	dataDir      string
	dataPrefix   string
	manifestName string
	listen       string

	logger *slog.Logger
	now    func() time.Time
}

func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		base:         config.NormalizeBasePath(cfg.BasePath),
		publicDir:    cfg.PublicDir,
		dataDir:      cfg.DataDir,
		dataPrefix:   strings.Trim(cfg.DataPrefix, "/"),
		manifestName: cfg.ManifestName,
		listen:       cfg.Listen,
		logger:       logging.OrDefault(logger).With("component", "web"),
		now:          time.Now,
	}
}

// Handler routes every request under the base path. Anything else is 404.
func (s *Server) Handler() http.Handler {
	return s.logRequests(http.HandlerFunc(s.route))
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")

	if r.URL.Path+"/" == s.base {
		http.Redirect(w, r, s.base, http.StatusMovedPermanently)
		return
	}
	rel, ok := strings.CutPrefix(r.URL.Path, s.base)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case rel == "" || rel == "index.html":
		s.indexHandler(w, r)
	case rel == "healthz":
		s.healthHandler(w, r)
	case rel == s.manifestName:
		s.serveFile(w, r, s.publicDir, rel)
	case s.dataPrefix != "" && strings.HasPrefix(rel, s.dataPrefix+"/"):
		s.serveFile(w, r, s.dataDir, strings.TrimPrefix(rel, s.dataPrefix+"/"))
	default:
		s.serveFile(w, r, s.publicDir, rel)
	}
}

// Serve answers requests on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("serving static site",
		"addr", ln.Addr().String(), "base_path", s.base,
		"public_dir", s.publicDir, "data_dir", s.dataDir)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// URL is the address a browser should open for a listener on addr.
func (s *Server) URL(addr string) string {
	return "http://" + addr + s.base
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path,
			"status", rec.status, "elapsed", s.now().Sub(start))
	})
}

func joinDir(dir, rel string) string {
	return filepath.Join(dir, filepath.FromSlash(rel))
}
