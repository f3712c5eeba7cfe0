package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/commerce-tracker/internal/config"
	"github.com/ignite/commerce-tracker/internal/hooks"
	"github.com/ignite/commerce-tracker/internal/mixpanel"
	"github.com/ignite/commerce-tracker/internal/pkg/distlock"
	"github.com/ignite/commerce-tracker/internal/pkg/logger"
	"github.com/ignite/commerce-tracker/internal/queue"
	"github.com/ignite/commerce-tracker/internal/repository/postgres"
	"github.com/ignite/commerce-tracker/internal/settings"
	"github.com/ignite/commerce-tracker/internal/tracker"
	"github.com/ignite/commerce-tracker/internal/webhook"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger.SetService("commerce-tracker")
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.ShouldRedact())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := tracker.Deps{}

	if cfg.Host.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.Host.DatabaseURL)
		if err != nil {
			logger.Error("failed to open host database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(3)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(30 * time.Second)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("host database ping failed, lookups will return empty values", "error", err)
		} else {
			logger.Info("host database connected")
		}
		pingCancel()

		repo := postgres.NewCommerceRepo(db)
		deps.Payments = repo
		deps.Catalog = repo
	} else {
		logger.Warn("DATABASE_URL not set, commerce platform unavailable")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis connection failed, using configured token", "error", err)
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("redis connected")
		}
		pingCancel()
	}

	if redisClient != nil {
		deps.Config = settings.NewResolver(settings.NewRedisStore(redisClient, cfg.Host.SettingsHash))
		if cfg.Dedupe.Enabled {
			deps.Claims = distlock.NewSaleClaims(redisClient, cfg.Dedupe.TTL())
			logger.Info("sale claims enabled", "ttl", cfg.Dedupe.TTL().String())
		}
	} else {
		deps.Config = settings.NewResolver(settings.StaticStore{settings.TokenKey: cfg.Mixpanel.Token})
		if cfg.Dedupe.Enabled {
			logger.Warn("dedupe enabled but redis unavailable, sale claims disabled")
		}
	}

	if cfg.Mixpanel.Enabled {
		mpCfg := cfg.Mixpanel
		deps.NewClient = func(token string) tracker.Analytics {
			return mixpanel.NewClient(mixpanel.Config{
				Token:   token,
				BaseURL: mpCfg.BaseURL,
				Timeout: mpCfg.Timeout(),
			})
		}
	} else {
		logger.Warn("mixpanel client disabled")
	}

	bus := hooks.NewBus()
	if tracker.Register(bus, tracker.New(deps)) {
		logger.Info("tracker registered")
	}

	handler := webhook.NewHandler(bus, cfg.Server.AllowedOrigins)

	var consumer *queue.Consumer
	if cfg.Queue.SQSURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Error("aws config", "error", err)
			os.Exit(1)
		}
		sqsClient := sqs.NewFromConfig(awsCfg)
		consumer = queue.NewConsumer(sqsClient, cfg.Queue.SQSURL, bus, int32(cfg.Queue.WaitSeconds))
		consumer.Start(ctx)

		if cfg.Queue.ForwardHTTP {
			handler.SetForwarder(queue.NewPublisher(sqsClient, cfg.Queue.SQSURL))
			logger.Info("http hooks forwarded to queue")
		}
	}

	addr := cfg.Server.GetHost() + ":" + strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("commerce tracker listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down commerce tracker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if consumer != nil {
		consumer.Stop()
	}
	cancel()
}
