package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"eventhub-api/internal/auth"
	"eventhub-api/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != 0 {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	store, err := a.openStore(bootCtx)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.log.Error("failed to close db", "error", err)
		}
	}()

	tokens, err := auth.NewIssuer(a.cfg.JWTSecret, a.cfg.JWTTTL)
	if err != nil {
		return err
	}

	if a.cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.NewServices(store, tokens), httpapi.Options{
		Logger:         a.log,
		CORSOrigins:    a.cfg.CORSOrigins,
		AuthRateLimit:  a.cfg.AuthRateLimit,
		AuthRateWindow: a.cfg.AuthRateWindow,
		Ready:          store.DB().PingContext,
	})

	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", server.Addr, "env", a.cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server forced to shutdown", "error", err)
	}
	a.log.Info("server exited cleanly")
	return nil
}
