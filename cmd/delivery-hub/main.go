package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-hub/internal/common/logger"
	"delivery-hub/internal/config"
	"delivery-hub/internal/connections/database"
	"delivery-hub/internal/connections/rabbitmq"
	"delivery-hub/internal/order"
	"delivery-hub/internal/realtime"
)

func main() {
	mode := flag.String("mode", "", "order-service | realtime-gateway")
	port := flag.Int("port", 0, "http port")
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		lg.Error("config_load_failed", err, nil)
		os.Exit(1)
	}

	mq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		lg.Error("rabbitmq_connect_failed", err, nil)
		os.Exit(1)
	}
	defer mq.Close()
	if err := mq.DeclareTopology(); err != nil {
		lg.Error("rabbitmq_declare_failed", err, nil)
		os.Exit(1)
	}

	switch *mode {
	case "order-service":
		if *port == 0 {
			*port = 3000
		}
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			lg.Error("db_connect_failed", err, nil)
			os.Exit(1)
		}
		defer db.Close()
		lg.Info("service_started", map[string]any{"service": "order-service", "port": *port})
		if err := order.Run(ctx, *port, db, mq); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "realtime-gateway":
		if *port == 0 {
			*port = 3003
		}
		opts := realtime.Options{
			IdleTimeout:  time.Duration(cfg.Gateway.IdleTimeoutSec) * time.Second,
			PingInterval: time.Duration(cfg.Gateway.PingIntervalSec) * time.Second,
			SendBuffer:   cfg.Gateway.SendBuffer,
		}
		lg.Info("service_started", map[string]any{"service": "realtime-gateway", "port": *port})
		if err := realtime.Run(ctx, *port, mq, opts); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: order-service | realtime-gateway")
		os.Exit(2)
	}
}
