package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/models"
	"github.com/zsmartex/tokex/routes"
	"github.com/zsmartex/tokex/trading"
	"github.com/zsmartex/tokex/workers/engines"
)

func main() {
	godotenv.Load()

	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "3000"
	}

	// Gateway mode fronts a separately running tokex-engine: commands go to
	// the matching topic, reads come from the database and the depth cache.
	// The default embedded mode owns the books itself and must be the only
	// engine process for its assets.
	if os.Getenv("API_GATEWAY") == "true" {
		config.Logger.Infoln("Starting tokex api (gateway)")

		r := routes.SetupRouter(nil)
		r.Listen(":" + port)
		return
	}

	if err := models.SeedAssets(config.Assets); err != nil {
		config.Logger.Fatalf("seed assets: %v", err)
	}

	exchange := trading.NewExchange(trading.NewSeedRegistry(config.Assets), trading.NewKafkaSink())
	defer exchange.Close()

	if err := trading.RestoreFromStore(exchange, config.Assets); err != nil {
		config.Logger.Fatalf("restore books: %v", err)
	}

	stopSweep := trading.StartExpiryScheduler(exchange, 15)
	defer stopSweep()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	executorWorker := engines.NewTradeExecutorWorker()
	orderWorker := engines.NewOrderProcessorWorker()

	go func() {
		if err := config.Kafka.Subscribe(ctx, "trade_executor", "tokex-executor", executorWorker.Process); err != nil && ctx.Err() == nil {
			config.Logger.Errorf("trade executor consumer: %v", err)
		}
	}()

	go func() {
		if err := config.Kafka.Subscribe(ctx, "order_processor", "tokex-order-processor", orderWorker.Process); err != nil && ctx.Err() == nil {
			config.Logger.Errorf("order processor consumer: %v", err)
		}
	}()

	config.Logger.Infoln("Starting tokex api")

	r := routes.SetupRouter(exchange)
	r.Listen(":" + port)
}
