package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"

	"github.com/encinapp/encinapp/internal/adapters/backend"
	"github.com/encinapp/encinapp/internal/adapters/device"
	"github.com/encinapp/encinapp/internal/adapters/http"
	natsadapter "github.com/encinapp/encinapp/internal/adapters/nats"
	"github.com/encinapp/encinapp/internal/adapters/nominatim"
	"github.com/encinapp/encinapp/internal/adapters/postgres"
	"github.com/encinapp/encinapp/internal/adapters/valkey"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/core/usecases"
	"github.com/encinapp/encinapp/internal/pkg/config"
	"github.com/encinapp/encinapp/internal/pkg/logging"
	"github.com/encinapp/encinapp/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("encinapp-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Version:     version,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// Database (notification feed)
	var (
		db        *postgres.DB
		noteStore ports.NotificationRepository
	)
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolMetrics(ctx, 15*time.Second)
		noteStore = postgres.NewNotificationRepo(db)
	}

	// Cache and token persistence
	var (
		cache      *valkey.Cache
		cacheSvc   ports.CacheService
		tokenStore ports.TokenStore
	)
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(valkey.Options{
			Addr:     cfg.Valkey.Addr,
			Password: cfg.Valkey.Password,
			DB:       cfg.Valkey.DB,
		})
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			cacheSvc = cache
			tokenStore = valkey.NewTokenStore(cache, "")
		}
	}

	// NATS
	var publisher ports.EventPublisher
	var natsPub *natsadapter.Publisher
	if cfg.NATS.Enabled {
		natsPub, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
			natsPub = nil
		} else {
			defer natsPub.Close()
			publisher = natsPub
		}
	}

	// Location
	var (
		provider ports.LocationProvider
		sink     http.LocationSink
	)
	switch cfg.Location.Source {
	case "static":
		provider = device.NewStatic(cfg.Location.Latitude, cfg.Location.Longitude)
	default:
		tracker := device.NewTracker(
			time.Duration(cfg.Location.MaxAge)*time.Second,
			time.Duration(cfg.Location.Wait)*time.Second,
		)
		provider, sink = tracker, tracker
		if natsPub != nil {
			sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
			if err != nil {
				slog.Warn("nats location subscriber unavailable", "error", err)
			} else {
				defer sub.Close()
				if err := sub.SubscribeLocationFixes(ctx, tracker.HandleFix); err != nil {
					slog.Warn("subscribe location fixes", "error", err)
				}
			}
		}
	}

	var geocoder ports.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = nominatim.New(
			cfg.Geocoder.BaseURL,
			cfg.Geocoder.UserAgent,
			cfg.Geocoder.Language,
			time.Duration(cfg.Geocoder.Timeout)*time.Second,
		)
	}

	// Backend: login goes through an anonymous client, everything else
	// through a client that asks the session for its token.
	backendCfg := backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.TimeoutDuration(),
		UserAgent: cfg.Backend.UserAgent,
	}
	notes := usecases.NewNotificationService(noteStore)
	session := usecases.NewSession(backend.NewAuthGateway(backend.New(backendCfg, nil)), tokenStore, notes)
	if err := session.Restore(ctx); err == nil {
		slog.Info("session restored", "user_id", session.Info().UserID)
	}
	client := backend.New(backendCfg, session)

	// Use cases
	geoSvc := usecases.NewGeolocationService(provider, geocoder, cacheSvc)
	pointSvc := usecases.NewPointService(backend.NewPointRepo(client), notes)
	alertSvc := usecases.NewAlertService(
		backend.NewAlertRepo(client),
		backend.NewCommentRepo(client),
		geoSvc,
		pointSvc,
		publisher,
		notes,
	)
	directorySvc := usecases.NewDirectoryService(backend.NewUserRepo(client), backend.NewPermissionRepo(client), notes)
	announcementSvc := usecases.NewAnnouncementService(backend.NewAnnouncementRepo(client), session, notes)

	deps := &http.Dependencies{
		Map:           usecases.NewMapController(pointSvc, alertSvc, geoSvc),
		Points:        pointSvc,
		Alerts:        alertSvc,
		Geo:           geoSvc,
		Session:       session,
		Directory:     directorySvc,
		Announcements: announcementSvc,
		Notifications: notes,
		Locations:     sink,
		DB:            db,
		Cache:         cache,
		Version:       version,
	}
	if natsPub != nil {
		deps.NATS = natsPub.Conn()
	}

	// Fiber
	json := jsoniter.ConfigCompatibleWithStandardLibrary
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "EncinApp Gateway",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps, http.RouterConfig{
		RouteTimeout: time.Duration(cfg.Server.RouteTimeout) * time.Second,
		RateLimit:    cfg.Server.RateLimit,
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version, "location_source", cfg.Location.Source)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
