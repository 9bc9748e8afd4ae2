// Package server wires the application together: repositories, services,
// handlers, routes, and the HTTP server lifecycle. It is the composition
// root — every dependency is constructed and connected here (or in
// main.go), nowhere else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/quotefeed/internal/auth"
	"github.com/sakif/quotefeed/internal/handler"
	"github.com/sakif/quotefeed/internal/middleware"
	sqliteRepo "github.com/sakif/quotefeed/internal/repository/sqlite"
	"github.com/sakif/quotefeed/internal/service"
)

// Config holds server configuration, loaded from the environment in
// main.go.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string

	// SessionSecret signs session cookies. Required.
	SessionSecret string
	// SessionTTL bounds how long a login lasts; zero selects the
	// service default.
	SessionTTL time.Duration

	// GitHub OAuth is optional — the routes are only registered when
	// both client credentials are set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph:
//
//	sqlite.DB → AuthService/QuoteService → handlers → routes
//
// Handlers receive services, services receive repository interfaces, and
// only this package sees the concrete types.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests driving the server with
// httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware, pages, and interaction endpoints.
//
// Route table:
//
//	GET  /                    global feed
//	GET  /login, /register    forms
//	POST /login, /register    authenticate / create account
//	GET  /logout              destroy session
//	GET  /user/{username}     profile (404 text when unknown)
//	POST /post-quote          create quote          ┐
//	POST /like/{id}           toggle like           │ require a
//	POST /repost/{id}         toggle repost         │ logged-in
//	POST /comment/{id}        append comment        │ user
//	POST /delete/{id}         owner-only delete     ┘
//	GET  /static/*            assets
//	GET  /auth/github/...     OAuth (when configured)
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return err
	}

	authSvc := service.NewAuthService(s.db, s.db, auth.NewPasswordService(), s.config.SessionTTL, s.logger)
	quoteSvc := service.NewQuoteService(s.db, s.db, s.logger)

	render, err := handler.NewRenderer(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authSvc, tokens, github, render, s.logger)
	feedHandler := handler.NewFeedHandler(quoteSvc, render, s.logger)
	quoteHandler := handler.NewQuoteHandler(quoteSvc, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Identity resolution runs on every request; it never blocks, it
	// only fills the context for whoever wants it.
	s.router.Use(auth.CurrentUser(authSvc, tokens))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/", feedHandler.HandleIndex)
	s.router.Get("/user/{username}", feedHandler.HandleProfile)

	s.router.Get("/login", authHandler.HandleLoginPage)
	s.router.Get("/register", authHandler.HandleRegisterPage)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Get("/logout", authHandler.HandleLogout)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// State-changing endpoints: anonymous requests are redirected to
	// /login before any handler runs, so no mutation can precede auth.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/post-quote", quoteHandler.HandlePost)
		r.Post("/like/{id}", quoteHandler.HandleLike)
		r.Post("/repost/{id}", quoteHandler.HandleRepost)
		r.Post("/comment/{id}", quoteHandler.HandleComment)
		r.Post("/delete/{id}", quoteHandler.HandleDelete)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting, drain in-flight requests (30s budget),
// close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
