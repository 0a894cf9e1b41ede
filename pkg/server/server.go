// Package server exposes cached agent definitions over a read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/agentdefs/pkg/catalog"
	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/presenter"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// Backend resolves source labels to queryable sources
type Backend interface {
	Source(label string) (definitions.Source, error)
	Entries() []*catalog.Entry
}

// Server represents the HTTP API server
type Server struct {
	router  *mux.Router
	backend Backend
	config  *Config
	server  *http.Server
}

// Config holds the configuration for the server
type Config struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	return nil
}

// NewServer creates a server answering from backend
func NewServer(backend Backend, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:  mux.NewRouter(),
		backend: backend,
		config:  config,
	}
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sources", s.handleListSources).Methods("GET", "OPTIONS")
	api.HandleFunc("/schema", s.handleSchema).Methods("GET", "OPTIONS")
	api.HandleFunc("/definitions", s.handleListDefinitions).Methods("GET", "OPTIONS")
	api.HandleFunc("/definitions/{id:.+}", s.handleGetDefinition).Methods("GET", "OPTIONS")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeErrorResponse(w, http.StatusNotFound, "not found", nil)
	})

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SourceInfo describes one configured source
type SourceInfo struct {
	Label       string `json:"label"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	DaysOld     int64  `json:"daysOld"`
	Definitions int    `json:"definitions"`
}

// handleListSources handles GET /api/sources
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries := s.backend.Entries()
	infos := make([]SourceInfo, 0, len(entries))
	for _, entry := range entries {
		status, err := entry.Store.SyncStatus(ctx)
		if err != nil {
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to read sync status", err)
			return
		}
		counts, err := entry.Store.Stats(ctx)
		if err != nil {
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to count definitions", err)
			return
		}

		info := SourceInfo{
			Label:   entry.Label(),
			Type:    entry.Config.Type,
			Status:  stateName(status.State),
			DaysOld: status.DaysOld,
		}
		for _, c := range counts {
			info.Definitions += c.Count
		}
		infos = append(infos, info)
	}

	s.writeJSONResponse(w, infos)
}

func stateName(state types.SyncState) string {
	switch state {
	case types.Fresh:
		return "fresh"
	case types.Stale:
		return "stale"
	default:
		return "never_synced"
	}
}

// ListDefinitionsResponse is the body of GET /api/definitions
type ListDefinitionsResponse struct {
	Source      string          `json:"source"`
	Definitions []types.Summary `json:"definitions"`
	Total       int             `json:"total"`
}

// handleListDefinitions handles GET /api/definitions
func (s *Server) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	source, ok := s.resolveSource(w, query.Get("source"))
	if !ok {
		return
	}

	filter := definitions.Filter{
		Category:    query.Get("category"),
		NamePattern: query.Get("name"),
	}
	if kinds := query.Get("kind"); kinds != "" {
		for _, k := range strings.Split(kinds, ",") {
			if k = strings.TrimSpace(k); k != "" {
				filter.Kinds = append(filter.Kinds, types.ParseKind(k))
			}
		}
	}
	compiled, err := filter.Compile()
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var summaries []types.Summary
	if q := query.Get("q"); q != "" {
		summaries, err = source.Search(ctx, q)
	} else {
		summaries, err = source.List(ctx)
	}
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list definitions", err)
		return
	}

	matched := compiled.Apply(summaries)
	s.writeJSONResponse(w, &ListDefinitionsResponse{
		Source:      source.Label(),
		Definitions: matched,
		Total:       len(matched),
	})
}

// handleGetDefinition handles GET /api/definitions/{id}
func (s *Server) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := types.ID(mux.Vars(r)["id"])
	query := r.URL.Query()

	source, ok := s.resolveSource(w, query.Get("source"))
	if !ok {
		return
	}

	def, err := source.Fetch(ctx, id)
	if err != nil {
		if types.IsNotFound(err) {
			s.writeErrorResponse(w, http.StatusNotFound, fmt.Sprintf("definition %s not found", id), nil)
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to fetch definition", err)
		return
	}

	switch query.Get("format") {
	case "", "json":
		s.writeJSONResponse(w, def)
	case "raw":
		contentType := "text/markdown; charset=utf-8"
		if strings.HasSuffix(strings.ToLower(string(def.ID)), ".json") {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(def.Raw))
	case "html":
		html, err := definitions.RenderHTML(def.Raw)
		if err != nil {
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to render definition", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	default:
		s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", query.Get("format")), nil)
	}
}

// handleSchema handles GET /api/schema
func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, definitions.JSONSchema())
}

func (s *Server) resolveSource(w http.ResponseWriter, label string) (definitions.Source, bool) {
	source, err := s.backend.Source(label)
	if err != nil {
		if catalog.IsUnknownSource(err) {
			s.writeErrorResponse(w, http.StatusNotFound, err.Error(), nil)
			return nil, false
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to resolve source", err)
		return nil, false
	}
	return source, true
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	presenter.Info(fmt.Sprintf("Serving definitions on http://%s/api", address))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("server error")
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "failed to serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop closes the server immediately
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
