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

	"albumtracker/internal/api"
	"albumtracker/internal/catalog"
	"albumtracker/internal/config"
	"albumtracker/internal/logging"
)

const (
	headerAccount   = "X-Account"
	headerRequestID = "X-Request-ID"

	maxRequestBody = 64 << 10
	// followTimeout bounds a long poll below the server write timeout.
	followTimeout = 25 * time.Second
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

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  cfg.Paths.APIToken,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.router = srv.routes()
	return srv
}

func (s *apiServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(correlationMiddleware)

	r.Method(http.MethodGet, "/metrics", s.daemon.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.token))
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/stats", s.handleStats)
		r.Get("/api/albums", s.handleListAlbums)
		r.Get("/api/albums/{id}", s.handleGetAlbum)
		r.Get("/api/accounts/{address}", s.handleAccount)
		r.Get("/api/events", s.handleEvents)
		r.Post("/api/transfers", s.handleTransfer)
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled")
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
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.daemon.Catalog().Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatsResponse{Counts: counts})
}

func (s *apiServer) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	var states []string
	for _, value := range r.URL.Query()["state"] {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				states = append(states, trimmed)
			}
		}
	}
	albums, err := s.daemon.Catalog().List(r.Context(), states...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if albums == nil {
		albums = []api.Album{}
	}
	s.writeJSON(w, http.StatusOK, api.AlbumListResponse{Albums: albums})
}

func (s *apiServer) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("album id %q: %w", chi.URLParam(r, "id"), catalog.ErrInvalidInput))
		return
	}
	album, err := s.daemon.Catalog().Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AlbumResponse{Album: album})
}

func (s *apiServer) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.daemon.Catalog().Account(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, account)
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var since uint64
	if raw := strings.TrimSpace(query.Get("since")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("since %q: %w", raw, catalog.ErrInvalidInput))
			return
		}
		since = parsed
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, followTimeout)
		defer cancel()
	}
	resp, err := s.daemon.Events(ctx, since, limit, follow)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.Events == nil {
		resp.Events = []api.StateChange{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleTransfer(w http.ResponseWriter, r *http.Request) {
	payer := strings.TrimSpace(r.Header.Get(headerAccount))
	if payer == "" {
		s.writeError(w, r, fmt.Errorf("%s header is required: %w", headerAccount, catalog.ErrInvalidInput))
		return
	}

	var req api.TransferRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("decode transfer: %v: %w", err, catalog.ErrInvalidInput))
		return
	}

	album, err := s.daemon.Catalog().Transfer(r.Context(), payer, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AlbumResponse{Album: album})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload, s.logger)
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := catalog.Kind(err)
	status := statusForKind(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
		message = "internal error"
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Kind: kind})
}

func statusForKind(kind string) int {
	switch kind {
	case catalog.KindUnauthorized:
		return http.StatusForbidden
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindAlreadyPurchased, catalog.KindNotPaid, catalog.KindAlreadyDelivered:
		return http.StatusConflict
	case catalog.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

// correlationMiddleware tags each request with the caller's X-Request-ID or
// a fresh one and echoes it back.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" {
			id = logging.NewCorrelationID()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}
