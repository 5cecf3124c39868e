package matching

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderSide string
type OrderType string
type TimeInForce string
type OrderStatus string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
	TypeStop   OrderType = "stop"
)

const (
	GTC TimeInForce = "gtc"
	IOC TimeInForce = "ioc"
)

const (
	StatusPending        OrderStatus = "pending"
	StatusPartial        OrderStatus = "partial"
	StatusFilled         OrderStatus = "filled"
	StatusCancelled      OrderStatus = "cancelled"
	StatusExpired        OrderStatus = "expired"
	StatusTriggerPending OrderStatus = "trigger_pending"
)

// ErrInvalidOrder wraps every validation failure detected before an order is
// admitted to an engine. No book state is touched when it is returned.
var ErrInvalidOrder = errors.New("market.order.invalid")

type Order struct {
	ID             int64               `json:"id"`
	UUID           uuid.UUID           `json:"uuid"`
	AssetID        string              `json:"asset_id"`
	Owner          string              `json:"owner"`
	Side           OrderSide           `json:"side"`
	Type           OrderType           `json:"type"`
	Price          decimal.NullDecimal `json:"price"`
	StopPrice      decimal.NullDecimal `json:"stop_price"`
	Quantity       decimal.Decimal     `json:"quantity"`
	FilledQuantity decimal.Decimal     `json:"filled_quantity"`
	TimeInForce    TimeInForce         `json:"time_in_force"`
	Status         OrderStatus         `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// OrderKey is the identity an order is stored under inside the book trees.
type OrderKey struct {
	ID        int64
	Side      OrderSide
	Price     decimal.Decimal
	StopPrice decimal.Decimal
	CreatedAt time.Time
}

func (o *Order) Key() *OrderKey {
	return &OrderKey{
		ID:        o.ID,
		Side:      o.Side,
		Price:     o.Price.Decimal,
		StopPrice: o.StopPrice.Decimal,
		CreatedAt: o.CreatedAt,
	}
}

func (o *Order) UnfilledQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

func (o *Order) Filled() bool {
	return o.FilledQuantity.Equal(o.Quantity)
}

// Fill moves quantity from unfilled to filled and keeps the status in step.
func (o *Order) Fill(quantity decimal.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(quantity)

	if o.Filled() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartial
	}
}

func (o *Order) Terminal() bool {
	switch o.Status {
	case StatusFilled, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsCrossed reports whether the order would trade against a resting order at
// the given price. Market orders cross unconditionally.
func (o *Order) IsCrossed(price decimal.Decimal) bool {
	if o.Type == TypeMarket {
		return true
	}

	if o.Side == SideBuy {
		return o.Price.Decimal.GreaterThanOrEqual(price)
	}

	return o.Price.Decimal.LessThanOrEqual(price)
}

// Triggered reports whether a stop order's trigger condition is satisfied by
// the last trade price. A zero last price means nothing has traded yet, so no
// stop can fire.
func (o *Order) Triggered(lastPrice decimal.Decimal) bool {
	if !lastPrice.IsPositive() {
		return false
	}

	if o.Side == SideBuy {
		return lastPrice.GreaterThanOrEqual(o.StopPrice.Decimal)
	}

	return lastPrice.LessThanOrEqual(o.StopPrice.Decimal)
}

func (o *Order) Validate() error {
	switch o.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	}

	if !o.Quantity.IsPositive() {
		return fmt.Errorf("%w: non positive quantity %s", ErrInvalidOrder, o.Quantity)
	}

	switch o.Type {
	case TypeLimit:
		if !o.Price.Valid || !o.Price.Decimal.IsPositive() {
			return fmt.Errorf("%w: limit order requires a positive price", ErrInvalidOrder)
		}
	case TypeMarket:
		if o.Price.Valid || o.StopPrice.Valid {
			return fmt.Errorf("%w: market order carries a price", ErrInvalidOrder)
		}
	case TypeStop:
		if !o.StopPrice.Valid || !o.StopPrice.Decimal.IsPositive() {
			return fmt.Errorf("%w: stop order requires a positive stop price", ErrInvalidOrder)
		}
		if o.Price.Valid && !o.Price.Decimal.IsPositive() {
			return fmt.Errorf("%w: non positive stop limit price", ErrInvalidOrder)
		}
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidOrder, o.Type)
	}

	switch o.TimeInForce {
	case GTC, IOC, "":
	default:
		return fmt.Errorf("%w: time in force %q", ErrInvalidOrder, o.TimeInForce)
	}

	return nil
}
