package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "eta_monitor/docs"
	"eta_monitor/internal/config"
	"eta_monitor/internal/handlers"
	"eta_monitor/internal/logger"
	"eta_monitor/internal/repository"
	"eta_monitor/internal/server"
	"eta_monitor/internal/service"
	"eta_monitor/internal/sink"

	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

// @title                       ETA Monitor API
// @version                     1.0
// @description                 Telemetry, parameter tree and sync control for an ETA heating controller.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml, .env and ETA_* overrides
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DBPath, "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	store, err := config.NewStore(cfg.DefaultSettings())
	if err != nil {
		log.Fatalw("invalid default settings", "err", err)
	}

	out := buildSinks(cfg, log)
	defer out.Close()

	// wire dependencies
	repos := repository.NewRepository(db)
	services, err := service.NewService(repos, store, cfg, out, log)
	if err != nil {
		log.Fatalw("failed to build services", "err", err)
	}

	// settings before state: the first sync must see the persisted mode and URL
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := services.RestoreSettings(bootCtx); err != nil {
		log.Warnw("restore settings failed, using defaults", "err", err)
	}
	if err := services.Sync.Restore(bootCtx); err != nil {
		log.Warnw("restore state failed, starting empty", "err", err)
	}
	bootCancel()

	apiHandler := handlers.NewHandler(services, log).WithAllowedOrigins(cfg.CORS.AllowedOrigins)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.Sync.Run(ctx)

	srv := server.New()
	runHTTPServer(srv, cfg, apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

// buildSinks connects the enabled outbound sinks. A broker that cannot be
// reached is logged and skipped so the dashboard still works without it.
func buildSinks(cfg config.AppConfig, log *logger.Logger) sink.Multi {
	var out sink.Multi
	if cfg.MQTT.Enabled {
		m, err := sink.NewMQTT(cfg.MQTT, log)
		if err != nil {
			log.Errorw("mqtt sink disabled", "err", err)
		} else {
			out = append(out, m)
		}
	}
	if cfg.Influx.Enabled {
		out = append(out, sink.NewInflux(cfg.Influx))
		log.Infow("influx sink enabled", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}
	return out
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg config.AppConfig, h *handlers.Handler, log *logger.Logger) {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	go func() {
		log.Infow("http server listening", "port", cfg.Port)
		if err := srv.Run(cfg.Port, c.Handler(h.InitRoutes())); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the sync loop
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
