package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tagscout/internal/api"
	"tagscout/internal/config"
	"tagscout/internal/gateway"
	"tagscout/internal/logging"
	"tagscout/internal/media"
	"tagscout/internal/pipeline"
)

const maxMessageBody = 64 << 10

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/status", authMiddleware(token, http.HandlerFunc(s.handleStatus)))
	mux.Handle("POST /api/messages", authMiddleware(token, http.HandlerFunc(s.handleMessage)))
	mux.Handle("GET /api/stats/users/{id}", authMiddleware(token, http.HandlerFunc(s.handleUserStats)))
	mux.Handle("GET /api/stats/servers/{id}", authMiddleware(token, http.HandlerFunc(s.handleServerStats)))
	mux.Handle("GET /metrics", authMiddleware(token, promhttp.Handler()))
	if gw := s.daemon.deps.Gateway; gw != nil {
		mux.Handle("GET /gateway/ws", authMiddleware(token, gw))
		mux.Handle("GET /gateway/history", authMiddleware(token, gw.HistoryHandler()))
	}
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
}

func (s *apiServer) address() string {
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

func (s *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.daemon.Status()
	deps := s.daemon.deps
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		SessionID:      status.SessionID,
		StartedAt:      api.FormatTime(status.StartedAt),
		StatsDBPath:    status.StatsDBPath,
		LockFilePath:   status.LockFilePath,
		OverridesPath:  s.daemon.cfg.Paths.OverridesPath,
		GatewayEnabled: deps.Gateway != nil,
		Providers:      append([]string{}, deps.Providers...),
		Rankings:       []api.ProviderRanking{},
	}
	if !status.StartedAt.IsZero() {
		payload.Uptime = time.Since(status.StartedAt).Round(time.Second).String()
	}
	if deps.Overrides != nil {
		payload.Overrides = deps.Overrides.Len()
	}
	for _, medium := range media.All() {
		ranking := s.daemon.cfg.Ranking(medium)
		payload.Rankings = append(payload.Rankings, api.ProviderRanking{
			Medium:    string(medium),
			Primary:   ranking.Primary,
			Auxiliary: ranking.Auxiliary,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg pipeline.Message
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&msg); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid message: "+err.Error())
		return
	}
	if strings.TrimSpace(msg.Body) == "" {
		s.writeError(w, http.StatusBadRequest, "message body is required")
		return
	}
	reply, err := s.daemon.deps.Processor.Process(r.Context(), msg)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Reply: reply, Text: gateway.Render(reply)})
}

func (s *apiServer) handleUserStats(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	summary, err := s.daemon.deps.Store.UserStats(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatsResponse{
		Kind:    "user",
		Summary: summary,
		Share:   summary.Share(),
		Text:    pipeline.FormatUserSummary(summary),
	})
}

func (s *apiServer) handleServerStats(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	summary, err := s.daemon.deps.Store.ServerStats(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatsResponse{
		Kind:    "server",
		Summary: summary,
		Share:   summary.Share(),
		Text:    pipeline.FormatServerSummary(summary),
	})
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
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
