// Package snello wires the chat agent, the task store and the HTTP
// surface into a runnable server.
package snello

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"snello/config"
	"snello/handlers"
	"snello/llm"
)

// Server is the HTTP server instance. Create one with NewServer, then
// call Start; it blocks until shut down by signal or Shutdown.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	client llm.Client

	staticPath string
	srv        *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger (default no-op).
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithClient overrides the model client instead of resolving it from
// the configured model string. Used by tests with a scripted client.
func WithClient(c llm.Client) Option {
	return func(s *Server) { s.client = c }
}

// WithStaticPath sets the directory for static file serving (default
// "static", skipped when the directory does not exist).
func WithStaticPath(path string) Option {
	return func(s *Server) { s.staticPath = path }
}

// NewServer creates a server from config.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		log:        zap.NewNop(),
		staticPath: "static",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start resolves the model client, builds routes and runs the HTTP
// server until a signal arrives or Shutdown is called.
func (s *Server) Start() error {
	client := s.client
	model := s.cfg.Model
	if client == nil {
		var err error
		client, model, err = llm.Resolve(s.cfg.Model, llm.ResolverConfig{
			GeminiAPIKey: s.cfg.GeminiAPIKey,
			OpenAIAPIKey: s.cfg.OpenAIAPIKey,
			BaseURL:      s.cfg.LLMBaseURL,
		})
		if err != nil {
			return fmt.Errorf("resolve model %q: %w", s.cfg.Model, err)
		}
	}

	sessions := handlers.NewSessionManager(handlers.SessionConfig{
		DataDir:       s.cfg.DataDir,
		Client:        client,
		Model:         model,
		SystemPrompt:  s.cfg.SystemPrompt,
		MaxToolRounds: s.cfg.MaxToolRounds,
		HistoryWindow: s.cfg.HistoryWindow,
		MaxTokens:     s.cfg.MaxTokens,
		HistoryLimit:  s.cfg.HistoryLimit,
		Log:           s.log,
	})

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, &handlers.Deps{
		Sessions: sessions,
		EventBus: handlers.NewEventBus(),
		Log:      s.log.Named("http"),
	})

	// Static chat page, when present.
	if info, err := os.Stat(s.staticPath); err == nil && info.IsDir() {
		s.log.Info("serving static files", zap.String("path", s.staticPath))
		mux.Handle("/", http.FileServer(http.Dir(s.staticPath)))
	}

	s.srv = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // disable for SSE
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		s.log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}()

	s.log.Info("snello starting",
		zap.String("addr", s.cfg.Addr()),
		zap.String("model", model),
		zap.String("data_dir", s.cfg.DataDir),
	)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware allows browser clients served from other origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
