package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/guillermop/sellerauth/internal/db"
	"github.com/guillermop/sellerauth/internal/handlers"
	"github.com/guillermop/sellerauth/internal/logger"
	"github.com/guillermop/sellerauth/internal/repository/postgres"
	"github.com/guillermop/sellerauth/internal/service/lwa"
	"github.com/guillermop/sellerauth/internal/service/oauth"
	"github.com/guillermop/sellerauth/internal/session"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize session handling
	sessionStore := session.NewMemoryStore()
	sessionManager, err := session.NewManager(session.Config{SecretKey: c.SessionSecret})
	if err != nil {
		return nil, fmt.Errorf("error while creating session manager. Err: %w", err)
	}

	// Initialize services
	lwaClient := lwa.NewClient(lwa.Config{
		TokenURL:     c.TokenEndpoint,
		ClientID:     c.LWAAppID,
		ClientSecret: c.LWAClientSecret,
	}, logger)

	oauthService, err := oauth.NewService(oauth.Config{
		AppID:       c.LWAAppID,
		RedirectURI: c.RedirectURI,
		AuthURL:     c.AuthEndpoint,
	}, sessionStore, lwaClient, storage.Seller(), logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating oauth service. Err: %w", err)
	}

	mux := handlers.NewRouter(
		oauthService,
		sessionManager,
		c.AllowedOrigin,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			// Consider to use logger dependency
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		// Consider to use logger dependency
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
