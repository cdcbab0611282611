// Package server exposes the orchestrator and the tool registry over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/dqagent/internal/agent"
	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/logging"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP front end.
type Server struct {
	addr     string
	agent    *agent.Orchestrator
	registry *tools.Registry
	gatherer prometheus.Gatherer
	dataPath string
	watch    bool
	debounce time.Duration
	logger   *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Addr  string
	Agent *agent.Orchestrator
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
	// DataPath is watched for changes when Watch is set.
	DataPath string
	Watch    bool
}

// New creates a server instance.
func New(cfg Config) *Server {
	return &Server{
		addr:     cfg.Addr,
		agent:    cfg.Agent,
		registry: cfg.Agent.Registry(),
		gatherer: cfg.Gatherer,
		dataPath: cfg.DataPath,
		watch:    cfg.Watch,
		debounce: 200 * time.Millisecond,
		logger:   logging.New("server"),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.accessLog,
		middleware.Recoverer,
	)
	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Post("/upload-data", s.handleUpload)
	r.Get("/tools", s.handleTools)
	r.Post("/tool/{name}", s.handleTool)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", ln.Addr().String())
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.dataPath != "" {
		eg.Go(func() error {
			return s.watchData(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchData reloads the dataset when the file at dataPath is written or
// replaced. The parent directory is watched so atomic renames are seen.
func (s *Server) watchData(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(s.dataPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch data directory", "path", target, "error", err)
		// Serve without reloads.
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.debounce, func() {
				if _, err := s.registry.Load(target); err != nil {
					// The previous dataset stays live.
					s.logger.Warn("dataset reload failed", "path", target, "error", err)
					return
				}
				s.logger.Info("dataset reloaded", "path", target)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type healthResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	DatasetLoaded bool   `json:"dataset_loaded"`
	Rows          int    `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "healthy", Message: "Data Quality Agent is running"}
	if ds, err := s.registry.Store().Snapshot(); err == nil {
		resp.DatasetLoaded = true
		resp.Rows = ds.Rows()
	}
	writeJSON(w, http.StatusOK, resp)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	writeJSON(w, http.StatusOK, s.agent.Process(r.Context(), req.Message))
}

type uploadRequest struct {
	FilePath string `json:"file_path"`
}

type uploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FilePath == "" {
		writeError(w, http.StatusBadRequest, "File path is required")
		return
	}
	ds, err := s.registry.Load(req.FilePath)
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case errors.Is(err, dataset.ErrParse):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.Error("error setting data file", "path", req.FilePath, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Status:  "success",
		Message: "Data file set to: " + req.FilePath,
		Rows:    ds.Rows(),
		Columns: len(ds.Columns),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.List()})
}

type toolRequest struct {
	Params map[string]any `json:"params"`
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req toolRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.registry.Invoke(r.Context(), name, req.Params)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, dataset.ErrNoDataset):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("error executing tool", "tool", name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeBody reads one JSON object. An empty body yields io.EOF.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
