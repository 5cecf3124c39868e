package helpers

import (
	"time"

	"github.com/gookit/validate"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tokex/matching"
)

type CreateOrderParams struct {
	Asset       string              `json:"asset" form:"asset" validate:"required"`
	Side        string              `json:"side" form:"side" validate:"required|ValidateSide"`
	OrdType     string              `json:"ord_type" form:"ord_type" validate:"ValidateOrdType"`
	Price       decimal.NullDecimal `json:"price" form:"price" validate:"ValidatePrice"`
	StopPrice   decimal.NullDecimal `json:"stop_price" form:"stop_price" validate:"ValidateStopPrice"`
	Quantity    decimal.Decimal     `json:"quantity" form:"quantity" validate:"ValidateQuantity"`
	TimeInForce string              `json:"time_in_force" form:"time_in_force" validate:"ValidateTimeInForce"`
	ExpiresAt   int64               `json:"expires_at" form:"expires_at"`
}

func (p CreateOrderParams) Messages() map[string]string {
	invalid_message := "market.order.invalid_{field}"

	return validate.MS{
		"required":            invalid_message,
		"ValidateSide":        invalid_message,
		"ValidateOrdType":     invalid_message,
		"ValidatePrice":       "market.order.non_positive_price",
		"ValidateStopPrice":   "market.order.non_positive_stop_price",
		"ValidateQuantity":    "market.order.non_positive_quantity",
		"ValidateTimeInForce": "market.order.invalid_time_in_force",
	}
}

func (p CreateOrderParams) ValidateSide(side string) bool {
	return side == string(matching.SideBuy) || side == string(matching.SideSell)
}

func (p CreateOrderParams) ValidateOrdType(ord_type string) bool {
	switch matching.OrderType(ord_type) {
	case matching.TypeLimit:
		return p.Price.Valid
	case matching.TypeStop:
		return p.StopPrice.Valid
	case matching.TypeMarket, "":
		return !p.Price.Valid && !p.StopPrice.Valid
	default:
		return false
	}
}

func (p CreateOrderParams) ValidatePrice(price decimal.NullDecimal) bool {
	if price.Valid {
		return price.Decimal.IsPositive()
	}

	return true
}

func (p CreateOrderParams) ValidateStopPrice(stop_price decimal.NullDecimal) bool {
	if stop_price.Valid {
		return stop_price.Decimal.IsPositive()
	}

	return true
}

func (p CreateOrderParams) ValidateQuantity(quantity decimal.Decimal) bool {
	return quantity.IsPositive()
}

func (p CreateOrderParams) ValidateTimeInForce(tif string) bool {
	switch matching.TimeInForce(tif) {
	case matching.GTC, matching.IOC, "":
		return true
	default:
		return false
	}
}

// BuildOrder maps validated params onto an engine order for the given
// owner. The engine assigns identity and timestamps at admission.
func (p CreateOrderParams) BuildOrder(owner string) *matching.Order {
	ord_type := matching.OrderType(p.OrdType)
	if ord_type == "" {
		ord_type = matching.TypeMarket
	}

	order := &matching.Order{
		AssetID:     p.Asset,
		Owner:       owner,
		Side:        matching.OrderSide(p.Side),
		Type:        ord_type,
		Price:       p.Price,
		StopPrice:   p.StopPrice,
		Quantity:    p.Quantity,
		TimeInForce: matching.TimeInForce(p.TimeInForce),
	}

	if p.ExpiresAt > 0 {
		expires_at := time.Unix(p.ExpiresAt, 0)
		order.ExpiresAt = &expires_at
	}

	return order
}
