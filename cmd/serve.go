package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/metalblueberry/fretscribe/internal/api"
	"github.com/metalblueberry/fretscribe/internal/observe"
)

const shutdownTimeout = 10 * time.Second

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "override the listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenAddr != "" {
			cfg.Server.ListenAddr = listenAddr
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "fretscribe"})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownMetrics(context.Background()); err != nil {
				slog.Warn("metrics shutdown", "err", err)
			}
		}()

		srv, err := api.New(cfg, observe.DefaultMetrics(), observe.MetricsHandler())
		if err != nil {
			return err
		}
		httpServer := &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			slog.Info("server listening", "addr", cfg.Server.ListenAddr, "tuning", cfg.Tuning.Name)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			slog.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}
