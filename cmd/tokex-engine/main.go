package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/models"
	"github.com/zsmartex/tokex/trading"
	"github.com/zsmartex/tokex/workers/engines"
)

func main() {
	godotenv.Load()

	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	if err := models.SeedAssets(config.Assets); err != nil {
		config.Logger.Fatalf("seed assets: %v", err)
	}

	exchange := trading.NewExchange(trading.NewSeedRegistry(config.Assets), trading.NewKafkaSink())
	defer exchange.Close()

	// rebuild the books from the durable rows before taking new commands
	if err := trading.RestoreFromStore(exchange, config.Assets); err != nil {
		config.Logger.Fatalf("restore books: %v", err)
	}

	stopSweep := trading.StartExpiryScheduler(exchange, 15)
	defer stopSweep()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	matchingWorker := engines.NewMatchingWorker(exchange)
	executorWorker := engines.NewTradeExecutorWorker()
	orderWorker := engines.NewOrderProcessorWorker()

	go func() {
		if err := config.Kafka.Subscribe(ctx, "trade_executor", "tokex-executor", executorWorker.Process); err != nil && ctx.Err() == nil {
			config.Logger.Errorf("trade executor consumer: %v", err)
			cancel()
		}
	}()

	go func() {
		if err := config.Kafka.Subscribe(ctx, "order_processor", "tokex-order-processor", orderWorker.Process); err != nil && ctx.Err() == nil {
			config.Logger.Errorf("order processor consumer: %v", err)
			cancel()
		}
	}()

	config.Logger.Infoln("Starting tokex engine")

	if err := config.Kafka.Subscribe(ctx, "matching", "tokex-engine", matchingWorker.Process); err != nil && ctx.Err() == nil {
		config.Logger.Errorf("matching consumer: %v", err)
	}
}
