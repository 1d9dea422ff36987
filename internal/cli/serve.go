package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dori/tasktrackr/internal/app"
	"github.com/dori/tasktrackr/internal/config"
	"github.com/dori/tasktrackr/internal/logging"
	"github.com/dori/tasktrackr/internal/server"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long in-flight requests get on shutdown
const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the backend over HTTP for remote clients",
		Example: `  tasktrackr serve --addr :8080
  TASKTRACKR_BACKEND_MODE=postgres TASKTRACKR_BACKEND_DSN=postgres://... tasktrackr serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Backend.Mode {
			case config.ModeRemote, config.ModeDemo, config.ModeLegacy:
				return fmt.Errorf("serve needs a %s or %s backend, not %s mode",
					config.ModeSQLite, config.ModePostgres, cfg.Backend.Mode)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			a, err := app.New(cfg, app.Options{LogOutput: os.Stderr})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.Backend, logging.Component(a.Log, "server"),
				server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
			).HTTPServer(cfg.Server.Addr)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.Log.WithField("addr", srv.Addr).Info("server listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("failed to serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.Log.Info("shutting down gracefully, press Ctrl+C again to force")
			stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			a.Log.Info("server exiting")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}
