package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mossy-p/seeforme-signaling/config"
	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/handlers"
	"github.com/mossy-p/seeforme-signaling/internal/logging"
	"github.com/mossy-p/seeforme-signaling/internal/models"
	"github.com/mossy-p/seeforme-signaling/internal/redis"
	"github.com/mossy-p/seeforme-signaling/internal/signaling"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port     string
		policy   string
		logLevel string
		useRedis bool
	)

	cmd := &cobra.Command{
		Use:   "signaling",
		Short: "Signaling and matchmaking server pairing blind users with volunteers",
		Long: `signaling accepts WebSocket connections from the seeforme apps, pairs
blind users with ready volunteers and relays WebRTC offers, answers and
ICE candidates between them. Flags override the matching environment
variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("policy") {
				cfg.Policy = config.Policy(policy)
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("redis") {
				cfg.Redis.Enabled = useRedis
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP listen port (PORT)")
	cmd.Flags().StringVar(&policy, "policy", "", `matchmaking policy, "queue" or "legacy" (SIGNALING_POLICY)`)
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	cmd.Flags().BoolVar(&useRedis, "redis", true, "mirror presence and publish notifications through Redis (REDIS_ENABLED)")

	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := logging.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		rdb  *goredis.Client
		sink events.Sink = events.Nop{}
	)
	if cfg.Redis.Enabled {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
		logger.Info("Redis connection established", "host", cfg.Redis.Host, "port", cfg.Redis.Port)

		rs := events.NewRedisSink(client, cfg.Redis.TTL, 0, logger)
		if err := rs.Reset(ctx, models.RoleSeeker.String(), models.RoleHelper.String()); err != nil {
			logger.Warn("failed to clear stale presence", "error", err)
		}
		rs.Start()
		defer rs.Close()
		sink = rs
	} else {
		logger.Warn("Redis disabled, presence and notifications are not published")
	}

	hub := signaling.NewHub(signaling.Options{Policy: cfg.Policy, Events: sink, Logger: logger})
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(cfg, hub, rdb),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting signaling server", "port", cfg.Port, "policy", cfg.Policy, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		stopHub()
		<-hubDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	// Hijacked WebSocket connections outlive Shutdown. The hub closes
	// them on its way out.
	stopHub()
	<-hubDone
	return nil
}
