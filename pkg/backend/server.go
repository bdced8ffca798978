package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/cecil-the-coder/ai-relay/pkg/backend/handlers"
	"github.com/cecil-the-coder/ai-relay/pkg/backend/middleware"
	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
	"github.com/cecil-the-coder/ai-relay/pkg/forwarder"
	"github.com/cecil-the-coder/ai-relay/pkg/metrics"
	pkghttp "github.com/cecil-the-coder/ai-relay/pkg/http"
	"github.com/cecil-the-coder/ai-relay/pkg/relay"
	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

// Dependencies are the collaborators the server relays to
type Dependencies struct {
	Chat  types.ChatProvider
	Image types.ImageGenerator

	// Collaborators is reported on /status, keyed by role ("chat", "image")
	Collaborators map[string]handlers.Collaborator

	// Proxy is the outbound proxy selection shared by both collaborators
	Proxy pkghttp.ProxyConfig
}

// Server represents the relay HTTP server that ties all components together
type Server struct {
	config     *backendtypes.RelayConfig
	deps       Dependencies
	httpServer *http.Server
	mux        *http.ServeMux
	handler    http.Handler
	metrics    *metrics.Collector
}

// NewServer creates a new relay server with the given configuration and collaborators
func NewServer(config *backendtypes.RelayConfig, deps Dependencies) *Server {
	s := &Server{
		config:  config,
		deps:    deps,
		mux:     http.NewServeMux(),
		metrics: metrics.NewCollector(),
	}

	s.setupRoutes()
	s.handler = s.applyMiddleware(s.mux)

	// Streams can outlive any fixed write deadline, so WriteTimeout defaults to 0
	s.httpServer = &http.Server{
		Addr:              config.Address(),
		Handler:           s.handler,
		ReadTimeout:       config.Server.ReadTimeout,
		ReadHeaderTimeout: config.Server.ReadTimeout,
		WriteTimeout:      config.Server.WriteTimeout,
	}

	return s
}

// setupRoutes mounts the relay, health and frontend routes
func (s *Server) setupRoutes() {
	chatRelay := relay.New(s.deps.Chat,
		relay.WithDebug(s.config.IsDebug()),
		relay.WithRequestID(middleware.GetRequestID),
	)
	chatHandler := handlers.NewChatHandler(chatRelay, s.metrics)
	imageHandler := handlers.NewImageHandler(forwarder.New(s.deps.Image), s.metrics)
	healthHandler := handlers.NewHealthHandler(s.config.Server.Version, s.deps.Proxy.String(), s.deps.Collaborators, s.metrics)

	// Health and status
	s.mux.HandleFunc("/health", healthHandler.Health)
	s.mux.HandleFunc("/status", healthHandler.Status)
	s.mux.HandleFunc("/version", healthHandler.Version)

	// Relay endpoints
	s.mux.HandleFunc("/api/chat", chatHandler.Chat)
	s.mux.HandleFunc("/api/chat/ws", chatHandler.ChatWebSocket)
	s.mux.HandleFunc("/api/image", imageHandler.Generate)

	// Frontend
	if s.config.Static.Root != "" {
		s.mux.Handle("/", handlers.NewStaticHandler(s.config.Static.Root, s.config.Static.Index))
	} else {
		s.mux.HandleFunc("/", handlers.NotFound)
	}
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on listener until the server is shut down
func (s *Server) Serve(listener net.Listener) error {
	log.Printf("Starting server on %s (version: %s)", listener.Addr(), s.config.Server.Version)
	log.Printf("Outbound proxy: %s", s.deps.Proxy)
	for _, role := range []string{"chat", "image"} {
		if c, ok := s.deps.Collaborators[role]; ok {
			log.Printf("  - %s: %s (model %s)", role, c.BaseURL, c.Model)
		}
	}
	if s.config.Static.Root != "" {
		log.Printf("Serving frontend from %s", s.config.Static.Root)
	}

	return s.httpServer.Serve(listener)
}

// Shutdown stops accepting connections and waits for in-flight requests,
// open streams included, until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down relay...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	log.Println("Relay stopped")
	return nil
}

// applyMiddleware wraps h so requests pass through
// RequestID -> Recovery -> Logging -> CORS -> h.
// RequestID is outermost so panic and access log lines carry the ID.
func (s *Server) applyMiddleware(h http.Handler) http.Handler {
	if s.config.CORS.IsEnabled() {
		h = middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: s.config.CORS.AllowedOrigins,
			AllowedMethods: s.config.CORS.AllowedMethods,
			AllowedHeaders: s.config.CORS.AllowedHeaders,
			MaxAge:         s.config.CORS.MaxAge,
		})(h)
	}

	h = middleware.Logging(h)
	h = middleware.Recovery(h)
	return middleware.RequestID(h)
}

// ListenAndServeWithGracefulShutdown listens on the configured address and serves
// until shutdownSignal is closed, then drains within the shutdown timeout.
func (s *Server) ListenAndServeWithGracefulShutdown(shutdownSignal <-chan struct{}) error {
	listener, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	return s.serveUntil(listener, shutdownSignal)
}

func (s *Server) serveUntil(listener net.Listener, shutdownSignal <-chan struct{}) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-shutdownSignal:
		timeout := s.config.Server.ShutdownTimeout
		if timeout == 0 {
			timeout = backendtypes.DefaultShutdownTimeout
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return s.Shutdown(ctx)
	}
}
