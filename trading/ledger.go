package trading

import (
	"sync"

	"github.com/zsmartex/tokex/matching"
)

// TradeLedger is the append-only authority for executed trades plus the
// registry of every order ever admitted. It stores value snapshots, never
// the live order instances the engines mutate, so queries are race free
// against matching. Orders are retained after they go terminal; the books
// hold only live orders and can be rebuilt from here. Safe for concurrent
// writers, each asset router appends its own trades independently.
type TradeLedger struct {
	mu     sync.RWMutex
	trades []*matching.Trade
	orders map[int64]matching.Order
}

func NewTradeLedger() *TradeLedger {
	return &TradeLedger{
		trades: make([]*matching.Trade, 0, 1024),
		orders: make(map[int64]matching.Order, 1024),
	}
}

// UpsertOrder stores the order's current state. Routers call it after every
// serialized mutation, with both fresh submissions and touched makers.
func (l *TradeLedger) UpsertOrder(o matching.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.orders[o.ID] = o
}

func (l *TradeLedger) AppendTrades(trades []*matching.Trade) {
	if len(trades) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = append(l.trades, trades...)

	// A trade carries the freshest snapshot of both legs.
	for _, t := range trades {
		l.orders[t.TakerOrder.ID] = t.TakerOrder
		l.orders[t.MakerOrder.ID] = t.MakerOrder
	}
}

func (l *TradeLedger) GetOrder(id int64) (matching.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, found := l.orders[id]
	if !found {
		return matching.Order{}, ErrOrderNotFound
	}

	return o, nil
}

// ListTrades returns trades newest first, filtered by asset and owner when
// given. An owner matches both the maker and taker leg. A non-positive limit
// means no cap.
func (l *TradeLedger) ListTrades(assetID string, owner string, limit int) []*matching.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*matching.Trade, 0)

	for i := len(l.trades) - 1; i >= 0; i-- {
		t := l.trades[i]

		if assetID != "" && t.AssetID != assetID {
			continue
		}

		if owner != "" && t.MakerOrder.Owner != owner && t.TakerOrder.Owner != owner {
			continue
		}

		result = append(result, t)

		if limit > 0 && len(result) >= limit {
			break
		}
	}

	return result
}

// TradesByOrder returns every trade referencing the order, oldest first.
func (l *TradeLedger) TradesByOrder(orderID int64) []*matching.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*matching.Trade, 0)

	for _, t := range l.trades {
		if t.TakerOrder.ID == orderID || t.MakerOrder.ID == orderID {
			result = append(result, t)
		}
	}

	return result
}

// LiveOrders snapshots every order that is not yet terminal. The expiry
// sweep walks this instead of the books so it never touches an engine's
// structures directly.
func (l *TradeLedger) LiveOrders() []matching.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]matching.Order, 0)

	for _, o := range l.orders {
		if !o.Terminal() {
			result = append(result, o)
		}
	}

	return result
}
