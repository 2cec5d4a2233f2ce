// Package ui serves the generated report artifacts over HTTP: the rendered
// summary, the workbook download, and the regional grid as JSON.
package ui

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"policypilot/internal"
	"policypilot/internal/config"
)

// Server is the report viewer.
type Server struct {
	cfg    *config.ServerConfig
	log    *internal.Logger
	router chi.Router
}

// NewServer wires the viewer routes.
func NewServer(cfg *config.ServerConfig) *Server {
	s := &Server{cfg: cfg, log: internal.DefaultLogger}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleSummary)
	r.Get("/report.xlsx", s.handleWorkbook)
	r.Get("/api/regional", s.handleRegional)
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the viewer.
func (s *Server) ListenAndServe() error {
	addr := ":" + s.cfg.Port
	s.log.Info("[Viewer] serving reports from %s on %s", s.cfg.ReportDir, addr)
	return http.ListenAndServe(addr, s.router)
}

// handleSummary renders summary.md as HTML.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.ReportDir, "summary.md")
	src, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "summary not generated yet", http.StatusNotFound)
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.ToHTML(src, p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>Policy Pilot</title></head><body>%s</body></html>", body)
}

func (s *Server) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	matches, err := filepath.Glob(filepath.Join(s.cfg.ReportDir, "*.xlsx"))
	if err != nil || len(matches) == 0 {
		http.Error(w, "workbook not generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(matches[0])+`"`)
	http.ServeFile(w, r, matches[0])
}

func (s *Server) handleRegional(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.ReportDir, "regional_statistics.json")
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "regional statistics not generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
