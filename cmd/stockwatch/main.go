package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopcore/shop-api/internal/catalog"
	"github.com/shopcore/shop-api/internal/config"
	kafkax "github.com/shopcore/shop-api/internal/kafka"
	"github.com/shopcore/shop-api/internal/orders"
	"github.com/shopcore/shop-api/internal/postgres"
	"github.com/shopcore/shop-api/internal/redisx"
	"github.com/shopcore/shop-api/internal/stockwatch"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer for inventory.low alerts
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockLow, 256)
	prod.Start()

	svc := &stockwatch.Service{
		Products:    &catalog.Repo{DB: db},
		Redis:       rdb,
		Producer:    prod,
		Threshold:   envInt("STOCKWATCH_THRESHOLD", 10),
		ServiceName: cfg.ServiceName + "-stockwatch",
	}

	group := getenv("STOCKWATCH_GROUP", "stockwatch")
	workers := envInt("STOCKWATCH_WORKERS", 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers)

	go func() {
		log.Printf("stockwatch consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderCreated, workers)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down stockwatch...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
