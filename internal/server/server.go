// Package server exposes the session index as a read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Zuo-Peng/edl-session-search/internal/edl"
	"github.com/Zuo-Peng/edl-session-search/internal/index"
	"github.com/Zuo-Peng/edl-session-search/internal/logging"
	"github.com/Zuo-Peng/edl-session-search/internal/search"
)

const defaultLimit = 50

// Server serves /api/sessions, /api/search and /healthz.
type Server struct {
	db     *index.DB
	router *chi.Mux
}

func New(db *index.DB) *Server {
	s := &Server{db: db, router: chi.NewRouter()}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/*", s.handleGetSession)
		r.Get("/search", s.handleSearch)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request through the request-scoped logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logging.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	reqID := middleware.GetReqID(r.Context())
	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
	)
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: reqID})
}

// parseLimit parses ?limit=, falling back to defaultLimit.
func parseLimit(r *http.Request) int {
	val := r.URL.Query().Get("limit")
	if val == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 1 {
		return defaultLimit
	}
	return min(n, 1000)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.db.SessionCount()
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": n})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := search.ListAll(s.db, search.Options{
		Query: q.Get("q"),
		Since: q.Get("since"),
		Limit: parseLimit(r),
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

type sessionResponse struct {
	Meta    *index.SessionRow `json:"meta"`
	Session *edl.Session      `json:"session"`
	Entries []index.EntryRow  `json:"entries,omitempty"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if key == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("missing session key"))
		return
	}

	meta, err := s.db.GetSessionByKey(key)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if meta == nil {
		writeError(w, r, http.StatusNotFound, errors.New("session not found: "+key))
		return
	}
	session, err := s.db.LoadSession(key)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	resp := sessionResponse{Meta: meta, Session: session}
	if v := r.URL.Query().Get("entries"); v == "1" || strings.EqualFold(v, "true") {
		if resp.Entries, err = s.db.GetEntries(key); err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("missing query parameter q"))
		return
	}
	results, err := search.Search(s.db, search.Options{
		Query:   query,
		Kind:    q.Get("kind"),
		Session: q.Get("session"),
		Since:   q.Get("since"),
		Limit:   parseLimit(r),
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}
