// Package server exposes cached work graphs over HTTP.
//
// Routes:
//
//	GET    /healthz                 liveness probe
//	GET    /v1/graphs/{key}         JSON export of the stored graph
//	GET    /v1/graphs/{key}/dot     Graphviz DOT of the stored graph
//	DELETE /v1/graphs/{key}         remove the stored graph
//
// Errors are JSON objects of the form {"error": {"code": ..., "message": ...}}
// with the status from [errors.HTTPStatus]. A stored graph that fails to
// decode is discarded and reported as 422 CACHE_INVALID.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/workgraph/pkg/buildinfo"
	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
	wgio "github.com/matzehuels/workgraph/pkg/io"
	"github.com/matzehuels/workgraph/pkg/observability"
	"github.com/matzehuels/workgraph/pkg/pipeline"
	"github.com/matzehuels/workgraph/pkg/render"
)

const shutdownTimeout = 5 * time.Second

// Server serves graphs stored through a [pipeline.Runner].
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// GraphResponse is the body of GET /v1/graphs/{key}.
type GraphResponse struct {
	Key     string     `json:"key"`
	BuildID string     `json:"build_id"`
	Size    int        `json:"size"`
	Graph   wgio.Graph `json:"graph"`
}

// New creates a server. A nil logger uses log.Default().
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/graphs/{key}", func(r chi.Router) {
		r.Get("/", s.handleGetGraph)
		r.Get("/dot", s.handleGetDOT)
		r.Delete("/", s.handleDeleteGraph)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown", "err", err)
		}
	}()

	s.logger.Info("listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	key, res, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{
		Key:     key,
		BuildID: res.BuildID,
		Size:    res.Size,
		Graph:   wgio.NewGraph(res.Nodes),
	})
}

func (s *Server) handleGetDOT(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.load(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := render.Options{
		Detailed: boolParam(q.Get("detailed")),
		Clusters: boolParam(q.Get("clusters")),
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.ToDOT(res.Nodes, opts)))
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := wgerrors.ValidateKey(key); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.runner.Delete(r.Context(), s.runner.Keyer.GraphKey(key)); err != nil {
		s.writeError(w, pipeline.Classify(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load resolves the graph named by the {key} parameter, writing an error
// response and returning false when it cannot.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (string, *pipeline.Result, bool) {
	key := chi.URLParam(r, "key")
	if err := wgerrors.ValidateKey(key); err != nil {
		s.writeError(w, err)
		return "", nil, false
	}
	res, hit, err := s.runner.Load(r.Context(), s.runner.Keyer.GraphKey(key))
	if err != nil {
		s.writeError(w, pipeline.Classify(err))
		return "", nil, false
	}
	if !hit {
		s.writeError(w, wgerrors.New(wgerrors.ErrCodeNotFound, "graph %q not found", key))
		return "", nil, false
	}
	return key, res, true
}

type errorBody struct {
	Error struct {
		Code    wgerrors.Code `json:"code"`
		Message string        `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := wgerrors.GetCode(err)
	if code == "" {
		code = wgerrors.ErrCodeInternal
	}
	status := wgerrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = wgerrors.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func boolParam(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
