package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tokex/controllers"
	"github.com/zsmartex/tokex/trading"
)

func SetupRouter(exchange *trading.Exchange) *fiber.App {
	controllers.Exchange = exchange

	app := fiber.New()

	app.Get("/api/v2/public/timestamp", controllers.GetTimestamp)
	app.Get("/api/v2/public/assets/:asset/depth", controllers.GetDepth)
	app.Get("/api/v2/public/assets/:asset/trades", controllers.GetTrades)

	app.Post("/api/v2/market/orders", controllers.CreateOrder)
	app.Post("/api/v2/market/orders/:id/cancel", controllers.CancelOrder)
	app.Get("/api/v2/market/orders/:id", controllers.GetOrderByID)
	app.Get("/api/v2/market/trades", controllers.GetMyTrades)

	return app
}
