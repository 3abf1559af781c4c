package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopcore/shop-api/internal/catalog"
	"github.com/shopcore/shop-api/internal/checkout"
	"github.com/shopcore/shop-api/internal/config"
	"github.com/shopcore/shop-api/internal/httpx"
	"github.com/shopcore/shop-api/internal/inventory"
	kafkax "github.com/shopcore/shop-api/internal/kafka"
	"github.com/shopcore/shop-api/internal/orders"
	"github.com/shopcore/shop-api/internal/postgres"
	"github.com/shopcore/shop-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prod.Start()

	// Repos & coordinator
	catalogRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	coord := &checkout.Coordinator{
		Products: catalogRepo,
		Ledger:   &inventory.PGLedger{DB: db},
		Orders:   orderRepo,
	}

	// Handlers
	router := httpx.NewRouter()
	(&httpx.CheckoutHandler{Coordinator: coord, Producer: prod, Service: cfg.ServiceName}).Register(router)
	(&httpx.CatalogHandler{Repo: catalogRepo}).Register(router)
	(&httpx.OrdersHandler{Repo: orderRepo, Redis: rdb}).Register(router)
	(&httpx.ReportsHandler{Repo: orderRepo}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // flush buffered events, then close the writer
	prod.WaitClosed()
}
