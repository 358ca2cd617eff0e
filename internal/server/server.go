// Package server exposes the inbound webhook and health endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gosuda/randevu/internal/agent"
	"github.com/gosuda/randevu/internal/channel"
	"github.com/gosuda/randevu/internal/config"
	"github.com/gosuda/randevu/internal/domain"
)

// Responder processes one inbound message end to end. Satisfied by
// *agent.Agent; an interface so handlers are testable with fakes.
type Responder interface {
	HandleMessage(ctx context.Context, tenant *domain.Tenant, userID, text string) (agent.Reply, error)
}

// Deduper implements idempotent first-seen checks on opaque keys.
// Satisfied by the Redis cache's SetNX.
type Deduper interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// Server is the HTTP server wiring webhook routes to the agent.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	tenants    domain.TenantRepository
	responder  Responder
	dedupe     Deduper
	senders    map[string]channel.Sender
	cfg        *config.Config
}

// New creates a Server with all routes wired. senders maps platform names
// to reply transports; a webhook for an unmapped platform still processes
// the message and returns the reply in the response body.
func New(cfg *config.Config, tenants domain.TenantRepository, responder Responder, dedupe Deduper, senders map[string]channel.Sender) *Server {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)

	s := &Server{
		router:    router,
		tenants:   tenants,
		responder: responder,
		dedupe:    dedupe,
		senders:   senders,
		cfg:       cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Webhook routes behind the shared-token check, exposed as huma
	// operations over the chi group.
	router.Route("/hooks", func(r chi.Router) {
		r.Use(s.requireWebhookToken)

		hookConfig := huma.DefaultConfig("Randevu Webhook API", "1.0.0")
		hookConfig.Servers = []*huma.Server{
			{URL: "/hooks"},
		}
		api := humachi.New(r, hookConfig)
		s.registerWebhookRoutes(api)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Handler exposes the router (used in tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
