package matching

import (
	"github.com/shopspring/decimal"
)

// PriceLevel keeps the resting orders of one side at one price, in strict
// time priority. Ties on CreatedAt fall back to the lower ID so iteration
// order never depends on how the orders happened to arrive in memory.
type PriceLevel struct {
	Side   OrderSide
	Price  decimal.Decimal
	Orders []*Order
}

type PriceLevelKey struct {
	Side  OrderSide
	Price decimal.Decimal
}

func NewPriceLevel(side OrderSide, price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Side:   side,
		Price:  price,
		Orders: make([]*Order, 0),
	}
}

func (p *PriceLevel) Key() *PriceLevelKey {
	return &PriceLevelKey{
		Side:  p.Side,
		Price: p.Price,
	}
}

func before(a, b *Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}

	return a.ID < b.ID
}

func (p *PriceLevel) Add(order *Order) {
	for _, o := range p.Orders {
		if o.ID == order.ID {
			return
		}
	}

	i := len(p.Orders)
	for i > 0 && before(order, p.Orders[i-1]) {
		i--
	}

	p.Orders = append(p.Orders, nil)
	copy(p.Orders[i+1:], p.Orders[i:])
	p.Orders[i] = order
}

// Top returns the order first in time priority at this level.
func (p *PriceLevel) Top() *Order {
	if p.Empty() {
		return nil
	}

	return p.Orders[0]
}

func (p *PriceLevel) Empty() bool {
	return len(p.Orders) == 0
}

func (p *PriceLevel) Size() int {
	return len(p.Orders)
}

func (p *PriceLevel) Total() decimal.Decimal {
	total := decimal.Zero

	for _, order := range p.Orders {
		total = total.Add(order.UnfilledQuantity())
	}

	return total
}

func (p *PriceLevel) Remove(id int64) *Order {
	for index, o := range p.Orders {
		if o.ID == id {
			p.Orders = append(p.Orders[:index], p.Orders[index+1:]...)
			return o
		}
	}

	return nil
}
