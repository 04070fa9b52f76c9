// Package server exposes the conversation orchestrator over the local
// HTTP remote-access API. The transport layer translates requests into
// orchestrator operations and never touches conversation state directly.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
	"github.com/haasonsaas/breadcrumbs/internal/observability"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// Options configures a Server.
type Options struct {
	// Gateway produces assistant responses for every conversation.
	Gateway chat.Gateway

	// Registry provides the tool set for tool-enabled conversations.
	Registry *chat.Registry

	// ChatOptions is the orchestrator configuration applied to each
	// conversation the server creates.
	ChatOptions chat.Options

	// Auth guards every endpoint except health and metrics.
	Auth *Authenticator

	Logger  *slog.Logger
	Metrics *observability.Metrics

	// Version is reported by the health endpoint.
	Version string
}

// Server is the HTTP remote-access surface. Conversations are kept in
// memory, keyed by id; nothing survives a restart.
type Server struct {
	opts   Options
	logger *slog.Logger

	mu            sync.Mutex
	conversations map[string]*conversation

	started time.Time
}

// conversation pairs an orchestrator with the tool setting fixed at
// creation time.
type conversation struct {
	orch         *chat.Orchestrator
	toolsEnabled bool
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = chat.NewRegistry()
	}
	return &Server{
		opts:          opts,
		logger:        logger,
		conversations: make(map[string]*conversation),
		started:       time.Now(),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.instrument("/api/v1/health", s.handleHealth))
	mux.HandleFunc("GET /api/v1/tools", s.instrument("/api/v1/tools", s.requireAuth(s.handleTools)))
	mux.HandleFunc("POST /api/v1/chat", s.instrument("/api/v1/chat", s.requireAuth(s.handleChat)))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		s.opts.Metrics.ObserveHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	}
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Auth == nil {
			s.jsonError(w, "authentication not configured", http.StatusUnauthorized)
			return
		}
		if err := s.opts.Auth.Authenticate(r); err != nil {
			s.jsonError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Conversations int    `json:"conversations"`
	Tools         int    `json:"tools"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	count := len(s.conversations)
	s.mu.Unlock()

	s.jsonResponse(w, healthResponse{
		Status:        "ok",
		Version:       s.opts.Version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Conversations: count,
		Tools:         s.opts.Registry.Len(),
	})
}

type toolsResponse struct {
	Tools []chat.ToolDescriptor `json:"tools"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	descriptors := s.opts.Registry.Descriptors()
	if descriptors == nil {
		descriptors = []chat.ToolDescriptor{}
	}
	s.jsonResponse(w, toolsResponse{Tools: descriptors})
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	ToolsEnabled   *bool  `json:"tools_enabled,omitempty"`
}

type chatResponse struct {
	Response       string   `json:"response"`
	ConversationID string   `json:"conversation_id"`
	ToolsUsed      []string `json:"tools_used"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.jsonError(w, "message is required", http.StatusBadRequest)
		return
	}

	// tools_enabled defaults to true and is fixed when the conversation
	// is created; later requests cannot toggle it.
	toolsEnabled := req.ToolsEnabled == nil || *req.ToolsEnabled

	id, conv := s.conversationFor(req.ConversationID, toolsEnabled)

	before := len(conv.orch.History())
	if err := conv.orch.Submit(r.Context(), req.Message); err != nil {
		s.jsonError(w, fmt.Sprintf("submit failed: %v", err), http.StatusInternalServerError)
		return
	}

	appended := conv.orch.History()[before:]
	s.jsonResponse(w, chatResponse{
		Response:       finalResponse(appended),
		ConversationID: id,
		ToolsUsed:      toolsUsed(appended),
	})
}

func (s *Server) conversationFor(id string, toolsEnabled bool) (string, *conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if conv, ok := s.conversations[id]; ok {
			if conv.toolsEnabled != toolsEnabled {
				s.logger.Warn("tools_enabled ignored for existing conversation", "conversation_id", id)
			}
			return id, conv
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	registry := s.opts.Registry
	if !toolsEnabled {
		registry = chat.NewRegistry()
	}
	conv := &conversation{
		orch:         chat.New(s.opts.Gateway, registry, s.opts.ChatOptions),
		toolsEnabled: toolsEnabled,
	}
	s.conversations[id] = conv
	s.logger.Info("conversation created", "conversation_id", id, "tools_enabled", toolsEnabled)
	return id, conv
}

// finalResponse returns the content of the last assistant message
// appended during the turn.
func finalResponse(appended []models.Message) string {
	for i := len(appended) - 1; i >= 0; i-- {
		if appended[i].Role == models.RoleAssistant {
			return appended[i].Content
		}
	}
	return ""
}

// toolsUsed collects the tool names requested during the turn, in
// issuance order. Always non-nil so the JSON field encodes as [].
func toolsUsed(appended []models.Message) []string {
	used := []string{}
	for _, group := range chat.GroupTurns(appended) {
		if group.Kind == chat.GroupToolUsage {
			used = append(used, group.ToolNames()...)
		}
	}
	return used
}

func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
