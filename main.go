package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/nzhukovskiy/fundlink-api/config"
	"github.com/nzhukovskiy/fundlink-api/database"
	"github.com/nzhukovskiy/fundlink-api/middleware"
	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
	"github.com/nzhukovskiy/fundlink-api/routes"
	"github.com/nzhukovskiy/fundlink-api/services/proposals"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config (optional)")
	flag.Parse()

	// Load .env if present (do not overwrite already-set environment variables).
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	requiredEnvVars := []string{"DB_HOST", "DB_USER", "DB_PASS", "DB_NAME", "JWT_SECRET"}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *configPath, err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	loc, _ := cfg.Location()
	stages, _ := models.ParseStageSequence(cfg.Funding.Stages)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto-migrate only in development to avoid accidental production schema changes
	if cfg.Env == "development" {
		log.Println("Running in development mode - performing auto-migration")
		if err := database.Migrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	} else {
		log.Println("Running in production mode - skipping auto-migration")
	}

	rdb := connectRedis(ctx, cfg.Redis)
	utils.Revoked = &utils.Revocation{Redis: rdb, DB: db}

	// Events go to the local hub, or through Redis so every replica's hub sees them.
	hub := notifications.NewHub()
	var sink notifications.Sink = hub
	if rdb != nil {
		relay := notifications.NewRedisRelay(rdb, cfg.Notifications.RedisChannel)
		sink = relay
		go func() {
			if err := relay.Run(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[notify] relay stopped: %v", err)
			}
		}()
	}
	dispatcher := notifications.NewDispatcher(cfg.Notifications.QueueSize, sink)

	thresholds := make([]rounds.Threshold, 0, len(cfg.Funding.Thresholds))
	for _, t := range cfg.Funding.Thresholds {
		thresholds = append(thresholds, rounds.Threshold{Tag: t.Tag, Before: t.Before, Message: t.Message})
	}
	engine := rounds.New(
		rounds.NewGormStore(db, proposals.Factory),
		dispatcher,
		rounds.Options{Stages: stages, Thresholds: thresholds, Location: loc},
	)

	var scheduler *rounds.Scheduler
	if cfg.Funding.SweepEnabled {
		var lease rounds.Lease
		if rdb != nil {
			lease = rounds.NewRedisLease(rdb)
		}
		scheduler, err = rounds.NewScheduler(engine, cfg.Funding.SweepSchedule, loc, lease)
		if err != nil {
			log.Fatalf("failed to schedule sweep: %v", err)
		}
		scheduler.Start()
		log.Printf("[sweep] scheduled %q (%s)", cfg.Funding.SweepSchedule, loc)
	}

	router := routes.InitRouter(routes.Deps{Engine: engine, Hub: hub, CronKey: cfg.CronKey})

	// Logging -> Security headers -> Request ID -> Max Body -> Timeout -> Recovery
	handler := middleware.RequestLogMiddleware(
		middleware.SecurityHeadersMiddleware(
			middleware.RequestIDMiddleware(
				middleware.MaxBodyMiddleware(
					middleware.TimeoutMiddleware(
						middleware.RecoveryMiddleware(router),
					),
				),
			),
		),
	)

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	dispatcher.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Println("Server exited")
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// API then revokes tokens in the database and delivers notifications locally.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		log.Printf("[redis] ping %s failed, continuing without redis: %v", cfg.Addr, err)
		_ = rc.Close()
		return nil
	}
	return rc
}
