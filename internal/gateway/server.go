// Package gateway exposes the skill's webhook endpoint: it decodes the
// platform envelope, runs the dialog processor and encodes the reply. All
// state machine semantics live in the dialog package; this layer is
// transport only.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alekspetrov/standup/internal/logging"
)

// Config holds gateway server configuration including network binding and
// optional TLS material. The hosting platform requires HTTPS; plain HTTP is
// for local runs behind a terminating proxy.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Server is the webhook HTTP server. Safe for concurrent use.
type Server struct {
	config  *Config
	handler *WebhookHandler
	server  *http.Server
	mu      sync.RWMutex
	running bool
}

// NewServer creates a gateway server around the webhook handler. The server
// does not listen until Start is called.
func NewServer(config *Config, handler *WebhookHandler) *Server {
	return &Server{
		config:  config,
		handler: handler,
	}
}

// Start begins serving the webhook. It blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Post("/", s.handler.ServeTurn)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running = true
	s.mu.Unlock()

	logger := logging.WithComponent("gateway")
	var err error
	if s.config.CertFile != "" && s.config.KeyFile != "" {
		logger.Info("listening", "addr", addr, "tls", true)
		err = s.server.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile)
	} else {
		logger.Info("listening", "addr", addr, "tls", false)
		err = s.server.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, letting in-flight turns finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	return s.server.Shutdown(ctx)
}
