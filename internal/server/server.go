// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects handlers, middleware, and routes,
// and decides:
//   - which store backs user records (SQLite or MongoDB)
//   - which completion backend writes READMEs (Groq or Gemini)
//   - which URL patterns map to which handler functions
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Store, Completer, GitHubProvider, github.Client
//	             → AuthService, ReadmeService, RepoService
//	             → Auth/User/GitHub/AI/Health handlers → routes
//
// This is the "composition root": every dependency is built in New, nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/readme-generator/internal/auth"
	"github.com/sakif/readme-generator/internal/config"
	"github.com/sakif/readme-generator/internal/github"
	"github.com/sakif/readme-generator/internal/handler"
	"github.com/sakif/readme-generator/internal/llm"
	"github.com/sakif/readme-generator/internal/middleware"
	"github.com/sakif/readme-generator/internal/repository"
	mongoRepo "github.com/sakif/readme-generator/internal/repository/mongodb"
	sqliteRepo "github.com/sakif/readme-generator/internal/repository/sqlite"
	"github.com/sakif/readme-generator/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store connection. Start closes it after the listener has
// drained, so in-flight upserts finish first.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New builds the full dependency graph from cfg.
//
// The order is bottom-up: store, then external clients, then services, then
// handlers. A failure after the store is open closes it before returning.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreDriver, err)
	}

	completer, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating %s completer: %w", cfg.AIProvider, err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(completer); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root HTTP handler. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// openStore picks the user store named by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return mongoRepo.New(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.StoreSQLite, "":
		return sqliteRepo.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// newCompleter picks the completion backend named by AI_PROVIDER.
func newCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Completer, error) {
	switch cfg.AIProvider {
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.AITimeout,
		}, logger)
	case config.ProviderGroq, "":
		return llm.NewGroqClient(llm.GroqConfig{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.GroqBaseURL,
			Model:   cfg.GroqModel,
			Timeout: cfg.AITimeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /healthz                   → liveness + store ping
//	GET  /api/auth/github           → redirect to GitHub
//	GET  /api/auth/github/callback  → OAuth callback, sets the session cookie
//	POST /api/auth/logout           → revoke grant, clear cookie (optional auth)
//	GET  /api/user/profile          → current user (auth required)
//	GET  /api/github/repos          → user's repositories (auth required)
//	POST /api/github/analyze        → tree → generated README (auth required)
//	POST /api/ai/refine             → README + request → new README (auth required)
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns a unique ID to each request
//  2. RealIP: extracts the client IP from proxy headers
//  3. Recoverer: turns panics into 500s
//  4. Logger: one line per request, tagged with the request ID
//  5. CORS: lets the browser client call with cookies
func (s *Server) setupRoutes(completer llm.Completer) error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	sealer := auth.NewSealer(cfg.TokenEncryptionKey)
	if !sealer.Enabled() {
		s.logger.Warn("TOKEN_ENCRYPTION_KEY not set; GitHub tokens are stored unencrypted")
	}

	providerCfg := auth.ProviderConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		CallbackURL:  cfg.GitHubCallbackURL,
		APIURL:       cfg.GitHubAPIURL,
		HTTPClient:   &http.Client{Timeout: cfg.HTTPClientTimeout},
	}
	if cfg.GitHubOAuthURL != "" && cfg.GitHubOAuthURL != config.DefaultGitHubOAuthURL {
		providerCfg.AuthURL = cfg.GitHubOAuthURL + "/login/oauth/authorize"
		providerCfg.TokenURL = cfg.GitHubOAuthURL + "/login/oauth/access_token"
	}
	provider := auth.NewGitHubProvider(providerCfg)
	ghClient := github.NewClient(cfg.GitHubAPIURL, cfg.HTTPClientTimeout, s.logger)

	// === Services ===
	authService := service.NewAuthService(s.store, provider, tokens, sealer, s.logger)
	readmeService := service.NewReadmeService(completer, s.logger)
	repoService := service.NewRepoService(authService, ghClient, readmeService, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, provider, handler.CookieConfig{
		ClientURL: cfg.ClientURL,
		Secure:    !cfg.IsDevelopment(),
	}, s.logger)
	userHandler := handler.NewUserHandler()
	githubHandler := handler.NewGitHubHandler(repoService, s.logger)
	aiHandler := handler.NewAIHandler(readmeService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(cfg.ClientURL))

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/github", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
			r.With(auth.OptionalAuth(authService)).Post("/logout", authHandler.HandleLogout)
		})

		// Everything below needs a valid session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authService))

			r.Get("/user/profile", userHandler.HandleProfile)
			r.Get("/github/repos", githubHandler.HandleListRepos)
			r.Post("/github/analyze", githubHandler.HandleAnalyze)
			r.Post("/ai/refine", aiHandler.HandleRefine)
		})
	})

	return nil
}

// Start runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM arrives,
// then shuts down gracefully and closes the store.
//
// Two goroutines share an errgroup: one serves, one waits for the signal and
// calls Shutdown. If the listener fails first, the group context is cancelled
// and the shutdown goroutine exits too.
func (s *Server) Start(ctx context.Context) error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Analyze and refine wait on the completion backend.
		WriteTimeout: s.config.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.AppEnv),
			slog.String("store", s.config.StoreDriver),
			slog.String("ai", s.config.AIProvider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
