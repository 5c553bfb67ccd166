// Package http exposes the presentation control plane over HTTP, Server-Sent
// Events and WebSockets.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/liveslides/api"
	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/catalog"
	"github.com/aretw0/liveslides/pkg/control"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/metrics"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/aretw0/liveslides/pkg/tally"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// Config holds the collaborators of the HTTP surface.
type Config struct {
	Store   ports.Store
	Catalog *catalog.Catalog
	Control *control.Service
	Auth    *control.TokenAuth
	Tally   *tally.Tracker

	// Metrics is optional.
	Metrics *metrics.Manager

	Version   string
	Backend   string
	UIBaseURL string
	Logger    *slog.Logger
}

// Server implements the HTTP handlers.
type Server struct {
	cfg     Config
	Streams *StreamManager
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler builds the router. ctx bounds the lifetime of background feeds.
func NewHandler(ctx context.Context, cfg Config) (http.Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Auth == nil {
		cfg.Auth = control.NewTokenAuth("")
	}

	doc, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	validate, err := requestValidator(doc)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		now:    time.Now,
	}
	s.Streams = NewStreamManager(s.feed, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(validate)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	if cfg.Metrics.Enabled() {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/presentations", func(r chi.Router) {
		r.Get("/", s.ListPresentations)
		r.Post("/", s.CreatePresentation)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", s.GetPresentation)
			r.Put("/", s.PutPresentation)
			r.Delete("/", s.DeletePresentation)
			r.Get("/state", s.GetState)
			r.Put("/state", s.PutState)
			r.Post("/responses", s.PostResponse)
			r.Get("/tally", s.GetTally)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	r.Get("/ws/{code}", s.ServeWS)
	r.Get("/api/update", s.OpenPresenter)

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe records request counts and latencies by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.Metrics.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.cfg.Metrics.ObserveHTTP(r.Method, route, status, time.Since(start))
	})
}

// GetHealth reports the store connectivity.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	state := s.cfg.Store.ConnectionState()
	status, code := "ok", http.StatusOK
	if !state.Healthy() {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status, "store": string(state)})
}

// GetInfo returns build information.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version, "store": s.cfg.Backend})
}

// ListPresentations handles GET /presentations.
func (s *Server) ListPresentations(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.Catalog.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreatePresentation stores a presentation under a fresh code.
func (s *Server) CreatePresentation(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	var p domain.Presentation
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	code, err := s.cfg.Catalog.Create(r.Context(), &p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/presentations/"+code)
	writeJSON(w, http.StatusCreated, catalog.Entry{Code: code, Title: p.Title, Slides: len(p.Slides)})
}

// GetPresentation handles GET /presentations/{code}.
func (s *Server) GetPresentation(w http.ResponseWriter, r *http.Request) {
	p, err := s.cfg.Catalog.Get(r.Context(), codeParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PutPresentation replaces the presentation of a code.
func (s *Server) PutPresentation(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	var p domain.Presentation
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := s.cfg.Catalog.Put(r.Context(), codeParam(r), &p); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePresentation handles DELETE /presentations/{code}.
func (s *Server) DeletePresentation(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	if err := s.cfg.Catalog.Delete(r.Context(), codeParam(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetState returns the Current-State document.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	st, err := s.cfg.Control.CurrentState(r.Context(), codeParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PutState moves the presentation to a slide. An empty id clears the state.
func (s *Server) PutState(w http.ResponseWriter, r *http.Request) {
	var body domain.CurrentState
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	role := s.role(r, "")
	code := codeParam(r)
	var err error
	if body.CurrentSlideID == "" {
		err = s.cfg.Control.Clear(r.Context(), role, code)
	} else {
		err = s.cfg.Control.SetCurrentSlide(r.Context(), role, code, body.CurrentSlideID)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostResponse appends an audience response to the presentation stream.
func (s *Server) PostResponse(w http.ResponseWriter, r *http.Request) {
	var evt domain.ResponseEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	evt, err := s.publish(r.Context(), codeParam(r), evt)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, evt)
}

// GetTally returns the aggregated answers of a presentation.
func (s *Server) GetTally(w http.ResponseWriter, r *http.Request) {
	board, err := s.board(r.Context(), codeParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board.Snapshot())
}

// OpenPresenter sets the current slide and redirects to the presenter UI.
func (s *Server) OpenPresenter(w http.ResponseWriter, r *http.Request) {
	var pid, sid string
	var token *string
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "pid", query, &pid); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "sid", query, &sid); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "token", query, &token); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	fallback := ""
	if token != nil {
		fallback = *token
	}
	if err := s.cfg.Control.SetCurrentSlide(r.Context(), s.role(r, fallback), pid, sid); err != nil {
		s.fail(w, r, err)
		return
	}

	target := strings.TrimRight(s.cfg.UIBaseURL, "/") + "/presenter?sid=" + url.QueryEscape(sid)
	http.Redirect(w, r, target, http.StatusFound)
}

// publish completes and appends evt to the stream of code.
func (s *Server) publish(ctx context.Context, code string, evt domain.ResponseEvent) (domain.ResponseEvent, error) {
	code = domain.NormalizeCode(code)
	if ok, err := s.cfg.Catalog.Exists(ctx, code); err != nil {
		return evt, err
	} else if !ok {
		return evt, fmt.Errorf("%w: %s", domain.ErrPresentationNotFound, code)
	}

	if evt.Type != domain.ActionTally && evt.Type != domain.ActionStream {
		return evt, fmt.Errorf("%w: unsupported response type %q", errBadRequest, evt.Type)
	}
	if evt.ClientID == "" {
		return evt, fmt.Errorf("%w: client_id is required", errBadRequest)
	}
	if evt.SID == "" {
		// Responses without a slide id answer the shared current slide.
		if st, err := s.cfg.Control.CurrentState(ctx, code); err == nil {
			evt.SID = st.CurrentSlideID
		}
	}
	if evt.Timestamp == "" {
		evt.Timestamp = s.now().UTC().Format(domain.TimestampLayout)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return evt, err
	}
	if err := s.cfg.Store.Publish(ctx, domain.StreamName(code), data); err != nil {
		return evt, fmt.Errorf("publish response: %w", err)
	}
	if s.cfg.Metrics.Enabled() {
		s.cfg.Metrics.RecordPublish(evt.Type)
	}
	s.logger.DebugContext(ctx, "response published", "code", code, "type", evt.Type, "sid", evt.SID)
	return evt, nil
}

// board returns the tally board of a known presentation.
func (s *Server) board(ctx context.Context, code string) (*tally.Board, error) {
	code = domain.NormalizeCode(code)
	ok, err := s.cfg.Catalog.Exists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPresentationNotFound, code)
	}
	return s.cfg.Tally.Board(code)
}

// role resolves the caller from the Authorization header, then fallback.
func (s *Server) role(r *http.Request, fallback string) control.Role {
	token := control.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = fallback
	}
	return s.cfg.Auth.Role(token)
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.role(r, "").CanWriteState() {
		return true
	}
	writeError(w, http.StatusForbidden, domain.ErrForbidden)
	return false
}

var errBadRequest = errors.New("bad request")

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		problems := make([]string, len(verr.Problems))
		for i, p := range verr.Problems {
			problems[i] = p.Error()
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: domain.ErrInvalidPresentation.Error(), Problems: problems})
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domain.ErrPresentationNotFound), errors.Is(err, domain.ErrSlideNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrInvalidPresentation), errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, catalog.ErrCodeExhausted):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func codeParam(r *http.Request) string {
	return domain.NormalizeCode(chi.URLParam(r, "code"))
}
