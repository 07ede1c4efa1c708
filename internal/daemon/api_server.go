package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gamearr/internal/config"
	"gamearr/internal/logging"
	"gamearr/internal/store"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon
	router chi.Router

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

type releaseResponse struct {
	ID          int64     `json:"id"`
	GameID      int64     `json:"game_id"`
	Title       string    `json:"title"`
	SizeBytes   *int64    `json:"size_bytes,omitempty"`
	Seeders     *int      `json:"seeders,omitempty"`
	Indexer     string    `json:"indexer"`
	Quality     string    `json:"quality,omitempty"`
	TorrentHash string    `json:"torrent_hash,omitempty"`
	Status      string    `json:"status"`
	GrabbedAt   time.Time `json:"grabbed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type releaseListResponse struct {
	Releases []releaseResponse `json:"releases"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  cfg.Paths.APIToken,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", srv.handleHealth)
	r.Method(http.MethodGet, "/metrics", d.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(srv.token))
		r.Get("/status", srv.handleStatus)
		r.Get("/releases", srv.handleReleases)
		r.Get("/releases/{releaseID}", srv.handleRelease)
		r.Post("/reconcile", srv.handleReconcile)
	})

	srv.router = r
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		s.server = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleReleases(w http.ResponseWriter, r *http.Request) {
	var statuses []store.ReleaseStatus
	for _, value := range r.URL.Query()["status"] {
		trimmed := store.ReleaseStatus(strings.ToLower(strings.TrimSpace(value)))
		if trimmed == "" {
			continue
		}
		if !trimmed.Valid() {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown release status %q", value))
			return
		}
		statuses = append(statuses, trimmed)
	}

	releases, err := s.daemon.store.ListReleases(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := releaseListResponse{Releases: make([]releaseResponse, 0, len(releases))}
	for _, rel := range releases {
		resp.Releases = append(resp.Releases, toReleaseResponse(rel))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleRelease(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "releaseID"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid release id")
		return
	}
	rel, err := s.daemon.store.GetRelease(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rel == nil {
		s.writeError(w, http.StatusNotFound, "release not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toReleaseResponse(rel))
}

func (s *apiServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	summary, err := s.daemon.runPass(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func toReleaseResponse(rel *store.Release) releaseResponse {
	return releaseResponse{
		ID:          rel.ID,
		GameID:      rel.GameID,
		Title:       rel.Title,
		SizeBytes:   rel.Size,
		Seeders:     rel.Seeders,
		Indexer:     rel.Indexer,
		Quality:     rel.Quality,
		TorrentHash: rel.TorrentHash,
		Status:      string(rel.Status),
		GrabbedAt:   rel.GrabbedAt,
		UpdatedAt:   rel.UpdatedAt,
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
