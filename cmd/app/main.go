package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/tablebot/config"
	"github.com/Domenick1991/tablebot/internal/bootstrap"
	"github.com/Domenick1991/tablebot/internal/telemetry"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.Telemetry.ServiceName)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("build app: %v", err)
	}
	defer app.Close()

	if err := bootstrap.Run(ctx, app); err != nil {
		log.Printf("server error: %v", err)
	}
}
