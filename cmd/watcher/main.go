package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/encinapp/encinapp/internal/adapters/backend"
	natsadapter "github.com/encinapp/encinapp/internal/adapters/nats"
	"github.com/encinapp/encinapp/internal/adapters/valkey"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/core/usecases"
	"github.com/encinapp/encinapp/internal/pkg/config"
	"github.com/encinapp/encinapp/internal/pkg/logging"
)

// The watcher polls the backend for active alerts and publishes changes on
// encinapp.alerts.* so that gateways relay alerts from every resident.
func main() {
	cfg, err := config.Load("encinapp-watcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Logging.Level, cfg.Logging.Format)

	if !cfg.NATS.Enabled {
		log.Fatal("watcher requires nats.enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	// Listing alerts works anonymously; a token saved by the gateway is used
	// when one is available.
	var creds ports.Credentials
	if cfg.Valkey.Enabled {
		cache, err := valkey.New(valkey.Options{Addr: cfg.Valkey.Addr, Password: cfg.Valkey.Password, DB: cfg.Valkey.DB})
		if err != nil {
			slog.Warn("valkey unavailable, polling anonymously", "error", err)
		} else {
			defer cache.Close()
			backendCfg := backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.TimeoutDuration(), UserAgent: cfg.Backend.UserAgent}
			session := usecases.NewSession(backend.NewAuthGateway(backend.New(backendCfg, nil)), valkey.NewTokenStore(cache, ""), nil)
			if err := session.Restore(ctx); err == nil {
				creds = session
			}
		}
	}

	client := backend.New(backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.TimeoutDuration(),
		UserAgent: cfg.Backend.UserAgent,
	}, creds)
	watcher := usecases.NewAlertWatcher(backend.NewAlertRepo(client), pub)

	interval := cfg.Watcher.IntervalDuration()
	slog.Info("alert watcher starting", "interval", interval.String(), "backend", cfg.Backend.BaseURL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Run(ctx, interval)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down alert watcher", "signal", sig.String())
	cancel()
	<-done
}
