package matching

import (
	"fmt"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"
)

const (
	// pendingOrdersCap is the buffer size for triggered stop orders.
	pendingOrdersCap int64 = 1024
)

// Comparator orders price levels so that the best level of a side sits at
// the right edge of its tree: highest price for bids, lowest for asks.
func Comparator(a, b interface{}) int {
	this := a.(*PriceLevelKey)
	that := b.(*PriceLevelKey)

	switch {
	case this.Side == SideSell && this.Price.LessThan(that.Price):
		return 1

	case this.Side == SideSell && this.Price.GreaterThan(that.Price):
		return -1

	case this.Side == SideBuy && this.Price.LessThan(that.Price):
		return -1

	case this.Side == SideBuy && this.Price.GreaterThan(that.Price):
		return 1

	default:
		return 0
	}
}

// StopComparator orders dormant stops so that the next stop to trigger sits
// at the right edge: lowest stop price for buy stops, highest for sell stops.
// Ties resolve by arrival time, then ID.
func StopComparator(a, b interface{}) (result int) {
	this := a.(*OrderKey)
	that := b.(*OrderKey)

	if this.ID == that.ID {
		return 0
	}

	switch {
	case this.Side == SideBuy && this.StopPrice.LessThan(that.StopPrice):
		result = 1

	case this.Side == SideBuy && this.StopPrice.GreaterThan(that.StopPrice):
		result = -1

	case this.Side == SideSell && this.StopPrice.LessThan(that.StopPrice):
		result = -1

	case this.Side == SideSell && this.StopPrice.GreaterThan(that.StopPrice):
		result = 1

	default:
		switch {
		case this.CreatedAt.Before(that.CreatedAt):
			result = 1
		case this.CreatedAt.After(that.CreatedAt):
			result = -1
		case this.ID < that.ID:
			result = 1
		default:
			result = -1
		}
	}

	return
}

// OrderBook holds the resting orders of one asset. It is not safe for
// concurrent use; the owning engine serializes every mutation.
type OrderBook struct {
	AssetID        string
	Bids           *rbt.Tree
	Asks           *rbt.Tree
	StopBids       *rbt.Tree
	StopAsks       *rbt.Tree
	LastTradePrice decimal.Decimal
	Sequence       uint64

	orders             map[int64]*Order
	pendingOrdersQueue *OrderQueue
}

func NewOrderBook(assetID string) *OrderBook {
	return &OrderBook{
		AssetID:            assetID,
		Bids:               rbt.NewWith(Comparator),
		Asks:               rbt.NewWith(Comparator),
		StopBids:           rbt.NewWith(StopComparator),
		StopAsks:           rbt.NewWith(StopComparator),
		orders:             make(map[int64]*Order, 1024),
		pendingOrdersQueue: NewOrderQueue(pendingOrdersCap),
	}
}

func (ob *OrderBook) sideTree(side OrderSide) *rbt.Tree {
	if side == SideBuy {
		return ob.Bids
	}

	return ob.Asks
}

func (ob *OrderBook) stopTree(side OrderSide) *rbt.Tree {
	if side == SideBuy {
		return ob.StopBids
	}

	return ob.StopAsks
}

// Insert places a resting order at its price level. Refuses duplicates.
func (ob *OrderBook) Insert(o *Order) error {
	if _, found := ob.orders[o.ID]; found {
		return fmt.Errorf("order %d already in book %s", o.ID, ob.AssetID)
	}

	tree := ob.sideTree(o.Side)
	pl := NewPriceLevel(o.Side, o.Price.Decimal)

	if value, found := tree.Get(pl.Key()); found {
		pl = value.(*PriceLevel)
	} else {
		tree.Put(pl.Key(), pl)
	}

	pl.Add(o)
	ob.orders[o.ID] = o
	ob.Sequence++

	return nil
}

// InsertStop parks a dormant stop order until the trigger price is seen.
func (ob *OrderBook) InsertStop(o *Order) error {
	if _, found := ob.orders[o.ID]; found {
		return fmt.Errorf("order %d already in book %s", o.ID, ob.AssetID)
	}

	ob.stopTree(o.Side).Put(o.Key(), o)
	ob.orders[o.ID] = o
	ob.Sequence++

	return nil
}

// Remove takes an order out of the live or stop structures. Returns nil when
// the order is not resting in this book.
func (ob *OrderBook) Remove(id int64) *Order {
	o, found := ob.orders[id]
	if !found {
		return nil
	}

	delete(ob.orders, id)
	ob.Sequence++

	if o.Status == StatusTriggerPending {
		ob.stopTree(o.Side).Remove(o.Key())
		return o
	}

	tree := ob.sideTree(o.Side)
	key := &PriceLevelKey{Side: o.Side, Price: o.Price.Decimal}

	value, found := tree.Get(key)
	if !found {
		return o
	}

	pl := value.(*PriceLevel)
	pl.Remove(o.ID)

	if pl.Empty() {
		tree.Remove(key)
	}

	return o
}

func (ob *OrderBook) Contains(id int64) bool {
	_, found := ob.orders[id]
	return found
}

// BestBid returns the highest-priced bid level, or nil on an empty side.
func (ob *OrderBook) BestBid() *PriceLevel {
	best := ob.Bids.Right()
	if best == nil {
		return nil
	}

	return best.Value.(*PriceLevel)
}

// BestAsk returns the lowest-priced ask level, or nil on an empty side.
func (ob *OrderBook) BestAsk() *PriceLevel {
	best := ob.Asks.Right()
	if best == nil {
		return nil
	}

	return best.Value.(*PriceLevel)
}

// Top returns the order next in price-time priority on the given side.
func (ob *OrderBook) Top(side OrderSide) *Order {
	var pl *PriceLevel
	if side == SideBuy {
		pl = ob.BestBid()
	} else {
		pl = ob.BestAsk()
	}

	if pl == nil {
		return nil
	}

	return pl.Top()
}

// setLastTradePrice records a trade price and moves every stop whose trigger
// condition is now satisfied into the pending queue. Buy stops fire when the
// price rises to or above their stop price, sell stops when it falls to or
// below.
func (ob *OrderBook) setLastTradePrice(price decimal.Decimal) {
	ob.LastTradePrice = price
	ob.Sequence++

	for {
		best := ob.StopBids.Right()
		if best == nil {
			break
		}

		bestOrder := best.Value.(*Order)
		if !bestOrder.Triggered(price) {
			break
		}

		ob.StopBids.Remove(best.Key)
		delete(ob.orders, bestOrder.ID)
		ob.pendingOrdersQueue.Push(bestOrder)
	}

	for {
		best := ob.StopAsks.Right()
		if best == nil {
			break
		}

		bestOrder := best.Value.(*Order)
		if !bestOrder.Triggered(price) {
			break
		}

		ob.StopAsks.Remove(best.Key)
		delete(ob.orders, bestOrder.ID)
		ob.pendingOrdersQueue.Push(bestOrder)
	}
}
