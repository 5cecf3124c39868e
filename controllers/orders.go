package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/controllers/helpers"
	"github.com/zsmartex/tokex/matching"
	"github.com/zsmartex/tokex/models"
	"github.com/zsmartex/tokex/trading"
	"github.com/zsmartex/tokex/types"
)

// Exchange is injected by routes.SetupRouter before the app starts. A nil
// Exchange means gateway mode: commands are forwarded to the engine's
// matching topic and reads are served from the durable store.
var Exchange *trading.Exchange

const matchingTopic = "matching"

func forwardCommand(message types.EnginePayloadMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return config.Kafka.Publish(matchingTopic, payload)
}

// currentOwner returns the authenticated owner reference forwarded by the
// identity gateway. Authentication itself happens upstream.
func currentOwner(c *fiber.Ctx) string {
	return c.Get("X-Owner")
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, trading.ErrOrderNotFound), errors.Is(err, trading.ErrAssetNotFound):
		return 404
	case errors.Is(err, trading.ErrForbidden):
		return 403
	default:
		return 422
	}
}

type submitResponse struct {
	Order  matching.Order    `json:"order"`
	Trades []*matching.Trade `json:"trades"`
}

func CreateOrder(c *fiber.Ctx) error {
	owner := currentOwner(c)
	if owner == "" {
		return c.Status(401).JSON(helpers.Errors{
			Errors: []string{"market.order.missing_owner"},
		})
	}

	errs := new(helpers.Errors)
	payload := new(helpers.CreateOrderParams)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_message_body"},
		})
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	if Exchange == nil {
		// the engine assigns the ID; the UUID stamped here is the handle
		// the caller can correlate on
		order := payload.BuildOrder(owner)
		order.UUID = uuid.New()

		if err := order.Validate(); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{err.Error()},
			})
		}

		if err := forwardCommand(types.EnginePayloadMessage{Action: types.ActionSubmit, Order: order}); err != nil {
			return c.Status(500).JSON(helpers.Errors{
				Errors: []string{"server.internal_error"},
			})
		}

		return c.Status(202).JSON(order)
	}

	order, trades, err := Exchange.SubmitOrder(payload.BuildOrder(owner))
	if err != nil {
		return c.Status(errStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(201).JSON(submitResponse{Order: order, Trades: trades})
}

func CancelOrder(c *fiber.Ctx) error {
	owner := currentOwner(c)
	if owner == "" {
		return c.Status(401).JSON(helpers.Errors{
			Errors: []string{"market.order.missing_owner"},
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"market.order.invalid_id"},
		})
	}

	if Exchange == nil {
		// ownership is enforced by the engine when it applies the command
		if err := forwardCommand(types.EnginePayloadMessage{Action: types.ActionCancel, OrderID: int64(id), Owner: owner}); err != nil {
			return c.Status(500).JSON(helpers.Errors{
				Errors: []string{"server.internal_error"},
			})
		}

		return c.Status(202).JSON(fiber.Map{"id": id})
	}

	order, err := Exchange.CancelOrder(int64(id), owner)
	if err != nil {
		return c.Status(errStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(200).JSON(order)
}

func GetOrderByID(c *fiber.Ctx) error {
	owner := currentOwner(c)
	if owner == "" {
		return c.Status(401).JSON(helpers.Errors{
			Errors: []string{"market.order.missing_owner"},
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"market.order.invalid_id"},
		})
	}

	if Exchange == nil {
		record, err := models.GetOrder(int64(id))
		if err != nil {
			return c.Status(404).JSON(helpers.Errors{
				Errors: []string{trading.ErrOrderNotFound.Error()},
			})
		}

		if record.Owner != owner {
			return c.Status(403).JSON(helpers.Errors{
				Errors: []string{trading.ErrForbidden.Error()},
			})
		}

		return c.Status(200).JSON(record)
	}

	order, err := Exchange.GetOrder(int64(id))
	if err != nil {
		return c.Status(errStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	if order.Owner != owner {
		return c.Status(403).JSON(helpers.Errors{
			Errors: []string{trading.ErrForbidden.Error()},
		})
	}

	return c.Status(200).JSON(order)
}

func GetMyTrades(c *fiber.Ctx) error {
	owner := currentOwner(c)
	if owner == "" {
		return c.Status(401).JSON(helpers.Errors{
			Errors: []string{"market.order.missing_owner"},
		})
	}

	limit := queryLimit(c, 100)
	asset := c.Query("asset")

	if Exchange == nil {
		trades, err := models.ListTrades(asset, owner, limit)
		if err != nil {
			return c.Status(500).JSON(helpers.Errors{
				Errors: []string{"server.internal_error"},
			})
		}

		return c.Status(200).JSON(trades)
	}

	return c.Status(200).JSON(Exchange.ListTrades(asset, owner, limit))
}
