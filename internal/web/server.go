// Package web serves the question form and the results page.
package web

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"nlsql/internal/logging"
	"nlsql/internal/metrics"
	"nlsql/internal/pipeline"
	"nlsql/internal/store"
)

// DefaultTitle heads both pages.
const DefaultTitle = "Natural Language to SQL"

// Runner processes one question. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, question string) *pipeline.Outcome
}

// Options configures a Server.
type Options struct {
	Title          string
	MetricsEnabled bool
}

// Server owns the HTTP routes.
type Server struct {
	runner   Runner
	renderer *Renderer
	opts     Options
	router   chi.Router
}

// IndexPage is the data for index.html.
type IndexPage struct {
	Title string
}

// ResultsPage is the data for results.html. Exactly one of Error and
// Results is meaningful; an empty Results means zero matching rows.
type ResultsPage struct {
	Title     string
	RequestID string
	Question  string
	Query     string
	Error     string
	Results   *store.ResultSet
}

// NewServer wires the routes.
func NewServer(runner Runner, renderer *Renderer, opts Options) *Server {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	s := &Server{runner: runner, renderer: renderer, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleIndex)
	r.Post("/query", s.handleQuery)
	r.Get("/healthz", s.handleHealth)
	if opts.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, IndexTemplate, IndexPage{Title: s.opts.Title})
}

// handleQuery runs the submitted question. Translation, refusal and execution
// failures are part of the page, not HTTP errors.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	question := r.PostFormValue("nl_query")
	if strings.TrimSpace(question) == "" {
		http.Error(w, "nl_query is required", http.StatusBadRequest)
		return
	}

	// Once started, a run completes even if the client goes away.
	out := s.runner.Run(context.WithoutCancel(r.Context()), question)

	page := ResultsPage{
		Title:     s.opts.Title,
		RequestID: out.RequestID,
		Question:  out.Question,
		Query:     out.Query,
	}
	if out.Failed() {
		page.Error = out.ErrorMessage()
	} else {
		page.Results = out.Results
	}
	s.render(w, ResultsTemplate, page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// render executes into a buffer so a template failure never sends a partial page.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, name, data); err != nil {
		logging.HTTPError("template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.HTTPDebug("%s %s -> %d (%s, %s)", r.Method, r.URL.Path, ww.Status(), time.Since(start), r.RemoteAddr)
	})
}
