// Package httpapi exposes a Session over a JSON HTTP API for a local renderer.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"blackjack/internal/app"
	"blackjack/internal/ports"
)

// Server serializes every transition on one session behind a mutex. The
// ticker and request handlers share it.
type Server struct {
	mu      sync.Mutex
	session *app.Session
	logger  ports.Logger
	now     func() time.Time
	// pending holds tick events until the next round or command response.
	pending []app.Event
}

// New wraps session. now defaults to time.Now.
func New(session *app.Session, logger ports.Logger, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{session: session, logger: logger, now: now}
}

type response struct {
	Snapshot app.Snapshot `json:"snapshot"`
	Events   []app.Event  `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type betRequest struct {
	Denomination *int `json:"denomination"`
}

type menuRequest struct {
	Open *bool `json:"open"`
}

// Tick advances the session clock. Events produced here are buffered and
// delivered with the next successful response that carries events.
func (s *Server) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.session.Tick(ctx, s.now())
	if err != nil {
		s.logger.Error("tick failed: %v", err)
		return
	}
	for _, ev := range events {
		s.logger.Debug("tick event %s", ev.Kind)
	}
	s.pending = append(s.pending, events...)
}

// drain returns the buffered tick events followed by events and clears the
// buffer. Callers hold mu.
func (s *Server) drain(events []app.Event) []app.Event {
	out := make([]app.Event, 0, len(s.pending)+len(events))
	out = append(out, s.pending...)
	out = append(out, events...)
	s.pending = nil
	return out
}

// Run calls Tick every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Get("/api/round", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		snap := s.session.Snapshot()
		events := s.drain(nil)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, response{Snapshot: snap, Events: events})
	})

	r.Get("/api/progress", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		progress := s.session.Progress(r.Context())
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, progress)
	})

	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		stats := s.session.Stats(r.Context())
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"stats":   stats,
			"winRate": stats.WinRate(),
		})
	})

	r.Post("/api/round/bet", func(w http.ResponseWriter, r *http.Request) {
		var req betRequest
		if err := decode(r.Body, &req); err != nil || req.Denomination == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"denomination\": n}"})
			return
		}
		s.command(w, r, func(ctx context.Context) ([]app.Event, error) {
			return s.session.PlaceBet(ctx, *req.Denomination)
		})
	})
	r.Post("/api/round/clear", s.handle((*app.Session).ClearBet))
	r.Post("/api/round/all-in", s.handle((*app.Session).GoAllIn))
	r.Post("/api/round/deal", s.handle((*app.Session).Deal))
	r.Post("/api/round/hit", s.handle((*app.Session).Hit))
	r.Post("/api/round/stand", s.handle((*app.Session).Stand))
	r.Post("/api/round/new-game", s.handle((*app.Session).StartNewGame))

	r.Post("/api/menu", func(w http.ResponseWriter, r *http.Request) {
		var req menuRequest
		if err := decode(r.Body, &req); err != nil || req.Open == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"open\": bool}"})
			return
		}
		s.command(w, r, func(ctx context.Context) ([]app.Event, error) {
			return s.session.SetMenuOpen(ctx, *req.Open)
		})
	})
	r.Post("/api/distraction/dismiss", s.handle((*app.Session).DismissDistraction))
	r.Post("/api/intro/ack", s.handle((*app.Session).AcknowledgeIntro))
	r.Delete("/api/progress", s.handle((*app.Session).ResetProgress))

	return r
}

func (s *Server) handle(cmd func(*app.Session, context.Context) ([]app.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, func(ctx context.Context) ([]app.Event, error) {
			return cmd(s.session, ctx)
		})
	}
}

func (s *Server) command(w http.ResponseWriter, r *http.Request, cmd func(context.Context) ([]app.Event, error)) {
	s.mu.Lock()
	events, err := cmd(r.Context())
	snap := s.session.Snapshot()
	if err == nil {
		events = s.drain(events)
	}
	s.mu.Unlock()

	switch {
	case err == nil:
	case app.IsPrecondition(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	default:
		s.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, response{Snapshot: snap, Events: events})
}

func decode(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
