package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/controllers/helpers"
	"github.com/zsmartex/tokex/matching"
	"github.com/zsmartex/tokex/models"
)

func queryLimit(c *fiber.Ctx, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}

	return limit
}

func GetTimestamp(c *fiber.Ctx) error {
	return c.Status(200).JSON(time.Now().Unix())
}

func GetDepth(c *fiber.Ctx) error {
	asset := c.Params("asset")
	limit := queryLimit(c, 50)

	if Exchange != nil {
		snapshot, err := Exchange.GetOrderBook(asset, limit)
		if err != nil {
			return c.Status(errStatus(err)).JSON(helpers.Errors{
				Errors: []string{err.Error()},
			})
		}

		return c.Status(200).JSON(snapshot)
	}

	// API deployed apart from the engine: serve the routers' cached depth.
	var snapshot matching.DepthSnapshot
	if err := config.Redis.GetKey("tokex:depth:"+asset, &snapshot); err != nil {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{"market.asset.not_found"},
		})
	}

	return c.Status(200).JSON(snapshot)
}

func GetTrades(c *fiber.Ctx) error {
	asset := c.Params("asset")
	limit := queryLimit(c, 100)

	if Exchange == nil {
		trades, err := models.ListTrades(asset, "", limit)
		if err != nil {
			return c.Status(500).JSON(helpers.Errors{
				Errors: []string{"server.internal_error"},
			})
		}

		return c.Status(200).JSON(trades)
	}

	return c.Status(200).JSON(Exchange.ListTrades(asset, "", limit))
}
