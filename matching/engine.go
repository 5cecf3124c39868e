package matching

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tokex/config"
)

// Engine matches incoming orders against one asset's book under price-time
// priority. Submit, Cancel and Expire must never run concurrently for the
// same asset; the per-asset router guarantees that, and the mutex backs it
// up for direct use in tests.
type Engine struct {
	matchMutex sync.Mutex

	AssetID      string
	OrderBook    *OrderBook
	MakerFeeRate decimal.Decimal
	TakerFeeRate decimal.Decimal
	FeeScale     int32

	lastTradeID int64
}

func NewEngine(assetID string, makerFeeRate, takerFeeRate decimal.Decimal) *Engine {
	return &Engine{
		AssetID:      assetID,
		OrderBook:    NewOrderBook(assetID),
		MakerFeeRate: makerFeeRate,
		TakerFeeRate: takerFeeRate,
		FeeScale:     8,
	}
}

// Submit runs one order through the book and returns the trades it caused
// together with every stop order it triggered, in trigger order and final
// state. A triggered stop may end cancelled or resting without any trade
// referencing it, so callers must record the returned stops, not just the
// trade snapshots. The incoming order and every maker touched carry their
// final state on return.
func (e *Engine) Submit(o *Order) ([]*Trade, []*Order, error) {
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}

	e.matchMutex.Lock()
	defer e.matchMutex.Unlock()

	if o.Status == "" {
		o.Status = StatusPending
	}

	config.Logger.Debugf("[tokex.engine] %s submit order %d %s %s %s * %s", e.AssetID, o.ID, o.Side, o.Type, o.Price.Decimal, o.Quantity)

	if o.Type == TypeStop && !o.Triggered(e.OrderBook.LastTradePrice) {
		o.Status = StatusTriggerPending
		o.UpdatedAt = time.Now()

		if err := e.OrderBook.InsertStop(o); err != nil {
			return nil, nil, err
		}

		return []*Trade{}, nil, nil
	}

	trades := e.process(e.activate(o))

	// Stops fire breadth first: every stop triggered by the fills above is
	// fully matched before returning, and may itself trigger more.
	triggered := []*Order{}
	for {
		pending := e.OrderBook.pendingOrdersQueue.Pop()
		if pending == nil {
			break
		}

		config.Logger.Debugf("[tokex.engine] %s stop order %d triggered at %s", e.AssetID, pending.ID, e.OrderBook.LastTradePrice)

		triggered = append(triggered, pending)
		trades = append(trades, e.process(e.activate(pending))...)
	}

	return trades, triggered, nil
}

// activate converts a stop order whose trigger fired into a market order, or
// a limit order when the stop carried a limit price. Other orders pass
// through untouched.
func (e *Engine) activate(o *Order) *Order {
	if o.Type != TypeStop {
		return o
	}

	if o.Price.Valid {
		o.Type = TypeLimit
	} else {
		o.Type = TypeMarket
	}

	if o.Status == StatusTriggerPending {
		o.Status = StatusPending
	}

	return o
}

func (e *Engine) process(taker *Order) []*Trade {
	trades := []*Trade{}

	opposite := SideSell
	if taker.Side == SideSell {
		opposite = SideBuy
	}

	for taker.UnfilledQuantity().IsPositive() {
		maker := e.OrderBook.Top(opposite)
		if maker == nil {
			break
		}

		if !taker.IsCrossed(maker.Price.Decimal) {
			break
		}

		quantity := decimal.Min(taker.UnfilledQuantity(), maker.UnfilledQuantity())
		price := maker.Price.Decimal
		now := time.Now()

		taker.Fill(quantity)
		maker.Fill(quantity)
		taker.UpdatedAt = now
		maker.UpdatedAt = now

		if maker.Filled() {
			e.OrderBook.Remove(maker.ID)
		}

		e.lastTradeID++
		trade := &Trade{
			ID:         e.lastTradeID,
			UUID:       uuid.New(),
			AssetID:    e.AssetID,
			Price:      price,
			Quantity:   quantity,
			Total:      price.Mul(quantity),
			TakerFee:   Fee(quantity, price, e.TakerFeeRate, e.FeeScale),
			MakerFee:   Fee(quantity, price, e.MakerFeeRate, e.FeeScale),
			TakerOrder: *taker,
			MakerOrder: *maker,
			ExecutedAt: now,
		}
		trades = append(trades, trade)

		config.Logger.Debugf("[tokex.engine] %s trade %d: %s * %s", e.AssetID, trade.ID, trade.Price, trade.Quantity)

		e.OrderBook.setLastTradePrice(price)
	}

	if taker.UnfilledQuantity().IsPositive() {
		if taker.Type == TypeMarket || taker.TimeInForce == IOC {
			// the unfilled remainder never rests
			taker.Status = StatusCancelled
			taker.UpdatedAt = time.Now()
		} else if err := e.OrderBook.Insert(taker); err != nil {
			// a remainder refused by the book (duplicate identity) must not
			// stay live anywhere
			taker.Status = StatusCancelled
			taker.UpdatedAt = time.Now()
			config.Logger.Errorf("[tokex.engine] %s rest order %d: %v", e.AssetID, taker.ID, err)
		}
	}

	return trades
}

// Cancel removes an order from the live book or the stop books and marks it
// cancelled. Returns nil when the order is not resting here.
func (e *Engine) Cancel(id int64) *Order {
	return e.evict(id, StatusCancelled)
}

// Expire is Cancel with the expired terminal status; the sweep job routes
// orders past their ExpiresAt through it.
func (e *Engine) Expire(id int64) *Order {
	return e.evict(id, StatusExpired)
}

func (e *Engine) evict(id int64, status OrderStatus) *Order {
	e.matchMutex.Lock()
	defer e.matchMutex.Unlock()

	o := e.OrderBook.Remove(id)
	if o == nil {
		return nil
	}

	o.Status = status
	o.UpdatedAt = time.Now()

	config.Logger.Debugf("[tokex.engine] %s order %d removed: %s", e.AssetID, id, status)

	return o
}

// RestoreLastTradePrice seeds the book's last trade price from durable trade
// history during restart replay. Called before stop orders are re-admitted,
// so their trigger reference matches the pre-restart state.
func (e *Engine) RestoreLastTradePrice(price decimal.Decimal) {
	e.matchMutex.Lock()
	defer e.matchMutex.Unlock()

	e.OrderBook.LastTradePrice = price
}

// Depth exposes the aggregated book for the public depth query.
func (e *Engine) Depth(limit int) *DepthSnapshot {
	e.matchMutex.Lock()
	defer e.matchMutex.Unlock()

	return e.OrderBook.Depth(limit)
}
