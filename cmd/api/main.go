package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapscreen/internal/adapters/device"
	"github.com/samirrijal/mapscreen/internal/adapters/eventloop"
	"github.com/samirrijal/mapscreen/internal/adapters/googlemaps"
	"github.com/samirrijal/mapscreen/internal/adapters/http"
	natsadapter "github.com/samirrijal/mapscreen/internal/adapters/nats"
	"github.com/samirrijal/mapscreen/internal/adapters/osrm"
	"github.com/samirrijal/mapscreen/internal/adapters/postgres"
	"github.com/samirrijal/mapscreen/internal/adapters/surface"
	"github.com/samirrijal/mapscreen/internal/adapters/valkey"
	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
	"github.com/samirrijal/mapscreen/internal/core/usecases"
	"github.com/samirrijal/mapscreen/internal/pkg/config"
	"github.com/samirrijal/mapscreen/internal/pkg/logging"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
	"github.com/samirrijal/mapscreen/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapscreen-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (optional)
	var db *postgres.DB
	var repo ports.RouteRequestRepository
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewRouteRequestRepo(db)
		go reportPoolStats(ctx, db)
	}

	// Cache (optional)
	var cache *valkey.Cache
	var cacheSvc ports.CacheService
	if cfg.Valkey.Addr != "" {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, directions cache disabled", "error", err)
		} else {
			defer cache.Close()
			cacheSvc = cache
		}
	}

	// NATS (optional)
	var publisher *natsadapter.Publisher
	var events ports.EventPublisher
	if cfg.NATS.URL != "" {
		publisher, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, route events disabled", "error", err)
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	// Directions
	var provider ports.DirectionsService
	switch cfg.Directions.Provider {
	case "google":
		provider, err = googlemaps.New(cfg.Directions.GoogleAPIKey)
		if err != nil {
			slog.Error("google directions", "error", err)
			os.Exit(1)
		}
	default:
		provider = osrm.New(cfg.Directions.OSRMURL, osrm.WithTimeout(cfg.Directions.Timeout))
	}
	directions := usecases.NewCachedDirections(provider, cacheSvc, cfg.Directions.CacheTTL)

	// Main queue, surface and device
	loop := eventloop.New(256)
	var surfaceOpts []surface.Option
	if publisher != nil {
		surfaceOpts = append(surfaceOpts, surface.WithOnChange(func(version uint64) {
			if err := publisher.PublishSurfaceChanged(version); err != nil {
				slog.Debug("surface change publish failed", "error", err)
			}
		}))
	}
	surf := surface.New(surfaceOpts...)
	dev := device.NewLocationManager(loop)

	// Screen
	points, _ := usecases.PointSetByName(cfg.Screen.PointSet)
	var journal *usecases.RouteJournal
	screenDeps := usecases.MapScreenDeps{
		Surface:    surf,
		Location:   dev,
		Directions: directions,
		Main:       loop,
		Indicator:  surf,
	}
	if repo != nil || events != nil {
		journal = usecases.NewRouteJournal(repo, events)
		screenDeps.Journal = journal
	}
	screen := usecases.NewMapScreen(screenDeps, usecases.UtahScreen(points),
		usecases.WithLogger(slog.Default().With("component", "map_screen")),
		usecases.WithRequestTimeout(cfg.Directions.Timeout),
	)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	go loop.Run(loopCtx)

	if err := loop.Sync(ctx, func() {
		screen.Load()
		screen.Appear()
	}); err != nil {
		slog.Error("map screen start failed", "error", err)
		os.Exit(1)
	}

	// A status granted on a previous run answers the prompt right away.
	if cfg.Screen.Authorization != "" {
		if err := dev.SetAuthorizationStatus(domain.AuthorizationStatus(cfg.Screen.Authorization)); err != nil {
			slog.Warn("ignoring configured authorization", "error", err)
		}
	}

	// Device feed and websocket relay over NATS
	natsConn := publisherConn(publisher)
	if natsConn != nil {
		sub := natsadapter.NewSubscriber(natsConn)
		err := sub.SubscribeDevice(ctx, natsadapter.DeviceHandlers{
			Location: func(ctx context.Context, p domain.GeoPoint) error {
				metrics.DeviceUpdates.WithLabelValues("location", "nats").Inc()
				_, err := dev.UpdateLocation(p)
				return err
			},
			Authorization: func(ctx context.Context, s domain.AuthorizationStatus) error {
				metrics.DeviceUpdates.WithLabelValues("authorization", "nats").Inc()
				return dev.SetAuthorizationStatus(s)
			},
		})
		if err != nil {
			slog.Warn("device feed unavailable", "error", err)
		} else {
			defer sub.Close()
		}
	}

	deps := &http.Dependencies{
		Screen:  screen,
		Loop:    loop,
		Surface: surf,
		Device:  dev,
		Journal: journal,
		NATS:    natsConn,
		DB:      db,
		Cache:   cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             64 * 1024,
		AppName:               "Map Screen API",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "directions", cfg.Directions.Provider, "point_set", points.Tag)
		if err := app.Listen(addr); err != nil {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	if err := loop.Sync(shutdownCtx, screen.Teardown); err != nil {
		slog.Warn("map screen teardown skipped", "error", err)
	}
	stopLoop()

	slog.Info("server stopped")
}

func publisherConn(p *natsadapter.Publisher) *nats.Conn {
	if p == nil {
		return nil
	}
	return p.Conn()
}

// reportPoolStats refreshes the pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		case <-ctx.Done():
			return
		}
	}
}
