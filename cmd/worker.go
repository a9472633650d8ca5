package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"festival-tickets/config"
	"festival-tickets/internal/events"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

func newWorkerCmd(cfg *config.Config, redisOpt asynq.RedisConnOpt) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued ticket events and run the keepalive scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cfg, redisOpt)
		},
	}
}

// runWorker serves the event queue until ctx is done.
func runWorker(ctx context.Context, cfg *config.Config, redisOpt asynq.RedisConnOpt) error {
	publishers, kafka := newPublishers(cfg)
	defer kafka.Close()

	worker := events.NewWorker(publishers, cfg.KeepaliveURL)
	srv := events.NewServer(redisOpt)
	if err := srv.Start(worker.Mux()); err != nil {
		return fmt.Errorf("asynq server: %w", err)
	}
	defer srv.Shutdown()

	if cfg.KeepaliveURL != "" {
		scheduler, err := events.NewKeepaliveScheduler(redisOpt, cfg.KeepaliveSpec)
		if err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("asynq scheduler: %w", err)
		}
		defer scheduler.Shutdown()
	}

	slog.Info("worker started", "publishers", len(publishers), "keepalive", cfg.KeepaliveURL != "")
	<-ctx.Done()
	slog.Info("worker stopping")
	return nil
}

func newPublishers(cfg *config.Config) (events.Fanout, *events.KafkaPublisher) {
	var out events.Fanout

	if cfg.PubNubPublishKey != "" {
		pn, err := events.NewPubNub(&events.PubNubConfig{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			UserID:       cfg.PubNubUserID,
			Channel:      cfg.PubNubChannel,
		})
		if err != nil {
			slog.Warn("events.NewPubNub()", "error", err)
		} else {
			out = append(out, pn)
		}
	}

	kafka := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	if kafka.Enabled() {
		out = append(out, kafka)
	}

	return out, kafka
}

func asynqRedisOpt(cfg *config.Config) asynq.RedisConnOpt {
	if strings.Contains(cfg.RedisURL, "://") {
		opt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err == nil {
			return opt
		}
		slog.Warn("asynq.ParseRedisURI()", "error", err)
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
