package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/wamux/internal/channels/whatsapp"
	"github.com/nextlevelbuilder/wamux/internal/config"
	"github.com/nextlevelbuilder/wamux/internal/dispatch"
	httpapi "github.com/nextlevelbuilder/wamux/internal/http"
	"github.com/nextlevelbuilder/wamux/internal/registry"
	"github.com/nextlevelbuilder/wamux/internal/store/file"
)

const shutdownGrace = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return err
	}

	sessions, err := file.NewSessionStore(cfg.SessionStorePath(), cfg.EncryptionKey)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := whatsapp.NewProvider(ctx, cfg.DeviceDBPath())
	if err != nil {
		return err
	}
	defer provider.Close()

	reg := registry.New(sessions, provider,
		registry.WithReconnectDelay(cfg.ReconnectDelay()),
		registry.WithPairingTimeout(cfg.PairingTimeout()),
	)
	dispatcher := dispatch.New(reg)
	api := httpapi.NewServer(sessions, reg, dispatcher, cfg)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	// Admin credentials follow the config file without a restart.
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath)
		if err != nil {
			slog.Warn("config watcher unavailable", "error", err)
		} else {
			watcher.OnChange(api.ApplyConfig)
			if err := watcher.Start(); err != nil {
				slog.Warn("config watcher failed to start", "error", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	// Sessions persisted as connecting/connected get a reconnect attempt.
	go reg.Resume(ctx)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown incomplete", "error", err)
	}

	reg.Shutdown()
	return nil
}
