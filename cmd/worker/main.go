package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/tablebot/config"
	"github.com/Domenick1991/tablebot/internal/kafka"
	"github.com/Domenick1991/tablebot/internal/notify"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("worker needs kafka.brokers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := notify.NewSender(cfg.Restaurant.Name)
	g, gctx := errgroup.WithContext(ctx)

	if topic := cfg.Kafka.NotificationsTopic; topic != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic)
		defer consumer.Close()
		g.Go(func() error {
			log.Printf("worker: consuming %s", topic)
			return consumer.Consume(gctx, kafka.JSONHandler(sender.SendReservation))
		})
	}

	escalations := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.EscalationsTopic)
	defer escalations.Close()
	g.Go(func() error {
		log.Printf("worker: consuming %s", cfg.Kafka.EscalationsTopic)
		return escalations.Consume(gctx, kafka.JSONHandler(sender.SendEscalation))
	})

	if err := g.Wait(); err != nil {
		log.Printf("worker stopped: %v", err)
		return
	}
	log.Printf("worker: shut down")
}
