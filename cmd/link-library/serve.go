package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/auth"
	"github.com/joestump/link-library/internal/handler"
	"github.com/joestump/link-library/internal/metadata"
	"github.com/joestump/link-library/internal/store"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()
			cfg := a.cfg

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			oidcProvider, err := auth.NewProvider(ctx, cfg)
			if err != nil {
				return err
			}

			sessionManager := auth.NewSessionManager(a.db, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)
			userStore := store.NewUserStore(a.db)

			extractor := metadata.New(metadata.Options{
				UserAgent:         cfg.Metadata.UserAgent,
				Timeout:           cfg.Metadata.Timeout,
				RateLimit:         cfg.Metadata.RateLimit,
				AllowPrivateHosts: cfg.Metadata.AllowPrivateHosts,
			}, a.log)

			router := handler.NewRouter(handler.Deps{
				SessionManager: sessionManager,
				AuthHandlers:   auth.NewHandlers(oidcProvider, sessionManager, userStore, !cfg.InsecureCookies, a.log),
				AuthMiddleware: auth.NewMiddleware(sessionManager, userStore, a.log),
				Service:        a.service(),
				Metadata:       extractor,
				AllowedOrigins: cfg.Extension.AllowedOrigins,
				Logger:         a.log,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
