// Package web is the browser and JSON front end of the interview agent.
package web

import (
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petasbytes/minutes-agent/internal/session"
	"github.com/petasbytes/minutes-agent/internal/summary"
	"github.com/petasbytes/minutes-agent/internal/telemetry"
)

// Welcome is shown above every new conversation.
const Welcome = "Welcome to the Meeting Analysis Chatbot! Complete your interview and press 'Generate MoM' when ready."

// Server serves the chat page and the JSON API over a session.Manager.
type Server struct {
	sessions *session.Manager
	minutes  *summary.Summarizer
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	page     *template.Template

	// Generated minutes per session. Display only: never fed back to the model.
	mu    sync.Mutex
	notes map[string][]note
}

// Config wires a Server.
type Config struct {
	Sessions *session.Manager
	Minutes  *summary.Summarizer
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewServer builds a Server. It panics if the embedded page template is
// malformed so that startup fails fast.
func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = telemetry.NopLogger()
	}
	return &Server{
		sessions: cfg.Sessions,
		minutes:  cfg.Minutes,
		gatherer: cfg.Gatherer,
		logger:   log,
		page:     loadPage(),
		notes:    make(map[string][]note),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Post("/send", s.handleSend)
	r.Post("/summary", s.handleSummary)
	r.Post("/reset", s.handleReset)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.apiCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.apiGet)
			r.Delete("/", s.apiDelete)
			r.Post("/messages", s.apiSend)
			r.Post("/summary", s.apiSummary)
			r.Post("/reset", s.apiReset)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

// note is generated minutes as displayed in the conversation. after is the
// number of turns the minutes were generated from.
type note struct {
	epoch uint64
	after int
	doc   string
}

// addNote records n, discarding notes from earlier epochs.
func (s *Server) addNote(id string, n note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notes[id][:0]
	for _, old := range s.notes[id] {
		if old.epoch >= n.epoch {
			kept = append(kept, old)
		}
	}
	s.notes[id] = append(kept, n)
}

// notesFor returns the notes of id that belong to epoch, oldest first.
func (s *Server) notesFor(id string, epoch uint64) []note {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []note
	for _, n := range s.notes[id] {
		if n.epoch == epoch {
			out = append(out, n)
		}
	}
	return out
}

func (s *Server) dropNotes(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
}

// Sweep forgets sessions idle for longer than ttl along with their notes.
// It returns the number of sessions removed.
func (s *Server) Sweep(ttl time.Duration) int {
	expired := s.sessions.Sweep(time.Now(), ttl)
	for _, id := range expired {
		s.dropNotes(id)
	}
	return len(expired)
}
