package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var engineOrderSeq int64

type orderSpec struct {
	Side        OrderSide
	Type        OrderType
	Price       string
	StopPrice   string
	Quantity    string
	TimeInForce TimeInForce
	Owner       string
}

func newOrder(spec orderSpec) *Order {
	engineOrderSeq++

	o := &Order{
		ID:          engineOrderSeq,
		AssetID:     "reitA",
		Owner:       spec.Owner,
		Side:        spec.Side,
		Type:        spec.Type,
		Quantity:    d(spec.Quantity),
		TimeInForce: spec.TimeInForce,
		CreatedAt:   time.Now(),
	}

	if o.Owner == "" {
		o.Owner = "member"
	}
	if o.TimeInForce == "" {
		o.TimeInForce = GTC
	}
	if spec.Price != "" {
		o.Price = nd(spec.Price)
	}
	if spec.StopPrice != "" {
		o.StopPrice = nd(spec.StopPrice)
	}

	return o
}

func newEngine() *Engine {
	return NewEngine("reitA", d("0.001"), d("0.002"))
}

func submit(t *testing.T, e *Engine, o *Order) []*Trade {
	t.Helper()

	trades, _, err := e.Submit(o)
	require.NoError(t, err)

	return trades
}

// assertConservation checks that the fills recorded on an order equal the sum
// of trade quantities referencing it.
func assertConservation(t *testing.T, o *Order, trades []*Trade) {
	t.Helper()

	sum := decimal.Zero
	for _, trade := range trades {
		if trade.TakerOrderID() == o.ID || trade.MakerOrderID() == o.ID {
			sum = sum.Add(trade.Quantity)
		}
	}

	assert.True(t, o.FilledQuantity.Equal(sum), "order %d filled %s, trades sum %s", o.ID, o.FilledQuantity, sum)
	assert.True(t, o.FilledQuantity.LessThanOrEqual(o.Quantity))
}

func assertNotCrossed(t *testing.T, ob *OrderBook) {
	t.Helper()

	bid, ask := ob.BestBid(), ob.BestAsk()
	if bid != nil && ask != nil {
		assert.True(t, bid.Price.LessThan(ask.Price), "book crossed: bid %s, ask %s", bid.Price, ask.Price)
	}
}

func TestEngineFullMatchAtSamePrice(t *testing.T) {
	e := newEngine()

	buy := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "10"})
	sell := newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "10"})

	assert.Empty(t, submit(t, e, buy))

	trades := submit(t, e, sell)
	require.Len(t, trades, 1)
	assert.Equal(t, "100", trades[0].Price.String())
	assert.Equal(t, "10", trades[0].Quantity.String())
	assert.Equal(t, "1000", trades[0].Total.String())
	assert.Equal(t, buy.ID, trades[0].MakerOrderID())
	assert.Equal(t, sell.ID, trades[0].TakerOrderID())

	assert.Equal(t, StatusFilled, buy.Status)
	assert.Equal(t, StatusFilled, sell.Status)
	assert.Nil(t, e.OrderBook.BestBid())
	assert.Nil(t, e.OrderBook.BestAsk())

	assertConservation(t, buy, trades)
	assertConservation(t, sell, trades)
}

func TestEngineMarketSellPartialLiquidity(t *testing.T) {
	e := newEngine()

	buy := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "101", Quantity: "5"})
	submit(t, e, buy)

	sell := newOrder(orderSpec{Side: SideSell, Type: TypeMarket, Quantity: "8"})
	trades := submit(t, e, sell)

	require.Len(t, trades, 1)
	assert.Equal(t, "101", trades[0].Price.String())
	assert.Equal(t, "5", trades[0].Quantity.String())

	assert.Equal(t, StatusFilled, buy.Status)
	// market remainder never rests
	assert.Equal(t, StatusCancelled, sell.Status)
	assert.Equal(t, "5", sell.FilledQuantity.String())
	assert.Nil(t, e.OrderBook.BestBid())
}

func TestEngineLimitIOCRemainderCancelled(t *testing.T) {
	e := newEngine()

	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "101", Quantity: "5"}))

	sell := newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "8", TimeInForce: IOC})
	trades := submit(t, e, sell)

	require.Len(t, trades, 1)
	assert.Equal(t, StatusCancelled, sell.Status)
	assert.Equal(t, "5", sell.FilledQuantity.String())
	assert.False(t, e.OrderBook.Contains(sell.ID))
}

func TestEngineLimitGTCRemainderRests(t *testing.T) {
	e := newEngine()

	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "101", Quantity: "5"}))

	sell := newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "8"})
	trades := submit(t, e, sell)

	require.Len(t, trades, 1)
	assert.Equal(t, StatusPartial, sell.Status)
	require.NotNil(t, e.OrderBook.BestAsk())
	assert.Equal(t, "100", e.OrderBook.BestAsk().Price.String())
	assert.Equal(t, "3", e.OrderBook.BestAsk().Total().String())

	assertNotCrossed(t, e.OrderBook)
}

func TestEngineMarketNoLiquidityCancels(t *testing.T) {
	e := newEngine()

	buy := newOrder(orderSpec{Side: SideBuy, Type: TypeMarket, Quantity: "3"})
	trades := submit(t, e, buy)

	assert.Empty(t, trades)
	assert.Equal(t, StatusCancelled, buy.Status)
	assert.True(t, buy.FilledQuantity.IsZero())
}

func TestEngineMakerPriceExecution(t *testing.T) {
	e := newEngine()

	submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "4"}))

	buy := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "105", Quantity: "4"})
	trades := submit(t, e, buy)

	require.Len(t, trades, 1)
	assert.Equal(t, "100", trades[0].Price.String(), "trade executes at the resting price")
}

func TestEngineTimePriorityWithinLevel(t *testing.T) {
	e := newEngine()

	first := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "6"})
	second := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "6"})
	second.CreatedAt = first.CreatedAt.Add(time.Millisecond)
	submit(t, e, first)
	submit(t, e, second)

	sell := newOrder(orderSpec{Side: SideSell, Type: TypeMarket, Quantity: "4"})
	trades := submit(t, e, sell)

	require.Len(t, trades, 1)
	assert.Equal(t, first.ID, trades[0].MakerOrderID())
	assert.Equal(t, StatusPartial, first.Status)
	assert.Equal(t, StatusPending, second.Status)
}

func TestEngineWalksPriceLevels(t *testing.T) {
	e := newEngine()

	submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "2"}))
	submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "101", Quantity: "2"}))
	submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "103", Quantity: "2"}))

	buy := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "101", Quantity: "5"})
	trades := submit(t, e, buy)

	require.Len(t, trades, 2)
	assert.Equal(t, "100", trades[0].Price.String())
	assert.Equal(t, "101", trades[1].Price.String())
	assert.Equal(t, StatusPartial, buy.Status)
	assert.Equal(t, "4", buy.FilledQuantity.String())

	// remainder rests at its own limit, below the untouched 103 ask
	assert.Equal(t, "101", e.OrderBook.BestBid().Price.String())
	assert.Equal(t, "103", e.OrderBook.BestAsk().Price.String())
	assertNotCrossed(t, e.OrderBook)
}

func TestEngineStopParksUntilTriggered(t *testing.T) {
	e := newEngine()

	stop := newOrder(orderSpec{Side: SideSell, Type: TypeStop, StopPrice: "100", Quantity: "10"})
	trades := submit(t, e, stop)

	assert.Empty(t, trades)
	assert.Equal(t, StatusTriggerPending, stop.Status)
	assert.True(t, e.OrderBook.Contains(stop.ID))
	assert.Nil(t, e.OrderBook.BestAsk(), "dormant stop never rests in the live book")
}

func TestEngineStopTriggersAsMarket(t *testing.T) {
	e := newEngine()

	// resting liquidity on both sides, then a dormant stop sell at 100
	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "97", Quantity: "10"}))
	submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "98", Quantity: "3"}))

	stop := newOrder(orderSpec{Side: SideSell, Type: TypeStop, StopPrice: "100", Quantity: "4"})
	submit(t, e, stop)
	require.Equal(t, StatusTriggerPending, stop.Status)

	// a trade at 98 sets the last price at or below the trigger
	taker := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "98", Quantity: "3"})
	trades := submit(t, e, taker)

	require.Len(t, trades, 2)
	assert.Equal(t, "98", trades[0].Price.String())
	assert.Equal(t, stop.ID, trades[1].TakerOrderID())
	assert.Equal(t, "97", trades[1].Price.String(), "triggered stop matches the then-best bid")
	assert.Equal(t, TypeMarket, stop.Type)
	assert.Equal(t, StatusFilled, stop.Status)
}

func TestEngineStopWithLimitPriceTriggersAsLimit(t *testing.T) {
	e := newEngine()

	stop := newOrder(orderSpec{Side: SideBuy, Type: TypeStop, StopPrice: "102", Price: "103", Quantity: "5"})
	submit(t, e, stop)

	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "102", Quantity: "1"}))
	trades := submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "102", Quantity: "1"}))

	require.Len(t, trades, 1)
	assert.Equal(t, TypeLimit, stop.Type)
	assert.Equal(t, StatusPending, stop.Status)
	require.NotNil(t, e.OrderBook.BestBid())
	assert.Equal(t, "103", e.OrderBook.BestBid().Price.String(), "unmatched triggered stop-limit rests")
}

func TestEngineStopCascade(t *testing.T) {
	e := newEngine()

	// deep bid ladder so each triggered stop trades lower and fires the next
	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "99", Quantity: "1"}))
	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "95", Quantity: "1"}))
	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "90", Quantity: "1"}))

	stopA := newOrder(orderSpec{Side: SideSell, Type: TypeStop, StopPrice: "99", Quantity: "1"})
	stopB := newOrder(orderSpec{Side: SideSell, Type: TypeStop, StopPrice: "95", Quantity: "1"})
	submit(t, e, stopA)
	submit(t, e, stopB)

	seller := newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "99", Quantity: "1"})
	trades, triggered, err := e.Submit(seller)
	require.NoError(t, err)

	// both fired stops are surfaced to the caller, in trigger order
	require.Len(t, triggered, 2)
	assert.Equal(t, stopA.ID, triggered[0].ID)
	assert.Equal(t, stopB.ID, triggered[1].ID)

	require.Len(t, trades, 3)
	assert.Equal(t, seller.ID, trades[0].TakerOrderID())
	assert.Equal(t, "99", trades[0].Price.String())
	assert.Equal(t, stopA.ID, trades[1].TakerOrderID())
	assert.Equal(t, "95", trades[1].Price.String())
	assert.Equal(t, stopB.ID, trades[2].TakerOrderID())
	assert.Equal(t, "90", trades[2].Price.String())

	assert.Equal(t, StatusFilled, stopA.Status)
	assert.Equal(t, StatusFilled, stopB.Status)
}

func TestEngineStopTriggersIntoEmptyBook(t *testing.T) {
	e := newEngine()

	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "99", Quantity: "1"}))

	stop := newOrder(orderSpec{Side: SideSell, Type: TypeStop, StopPrice: "99", Quantity: "5"})
	submit(t, e, stop)

	trades, triggered, err := e.Submit(newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "99", Quantity: "1"}))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, StatusCancelled, stop.Status, "stop firing into an empty opposite side cancels like a market order")
	assert.True(t, stop.FilledQuantity.IsZero())

	// no trade references the dead stop, so its final state travels here
	require.Len(t, triggered, 1)
	assert.Equal(t, stop.ID, triggered[0].ID)
	assert.Equal(t, StatusCancelled, triggered[0].Status)
}

func TestEngineCancel(t *testing.T) {
	e := newEngine()

	o := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "5"})
	submit(t, e, o)

	cancelled := e.Cancel(o.ID)
	require.NotNil(t, cancelled)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Nil(t, e.OrderBook.BestBid())

	assert.Nil(t, e.Cancel(o.ID), "cancelling again finds nothing to remove")
}

func TestEngineCancelDormantStop(t *testing.T) {
	e := newEngine()

	stop := newOrder(orderSpec{Side: SideBuy, Type: TypeStop, StopPrice: "105", Quantity: "5"})
	submit(t, e, stop)

	cancelled := e.Cancel(stop.ID)
	require.NotNil(t, cancelled)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.False(t, e.OrderBook.Contains(stop.ID))

	// a later price move must not resurrect it
	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "106", Quantity: "1"}))
	trades := submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "106", Quantity: "1"}))
	require.Len(t, trades, 1)
	assert.Equal(t, StatusCancelled, stop.Status)
}

func TestEngineExpire(t *testing.T) {
	e := newEngine()

	o := newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "5"})
	submit(t, e, o)

	expired := e.Expire(o.ID)
	require.NotNil(t, expired)
	assert.Equal(t, StatusExpired, expired.Status)
	assert.Nil(t, e.OrderBook.BestAsk())
}

func TestEngineFeeRoundHalfEven(t *testing.T) {
	e := newEngine()

	// 0.33333333 * 1 * 0.001 = 0.00033333333, rounds half-even at 8 places
	fee := Fee(d("0.33333333"), d("1"), d("0.001"), 8)
	assert.Equal(t, "0.00033333", fee.String())

	assert.Equal(t, "0.000125", Fee(d("0.125"), d("1"), d("0.001"), 6).String())
	// exact half at the scale boundary rounds to the even neighbor
	assert.Equal(t, "0.0002", Fee(d("0.15"), d("1"), d("0.001"), 4).String())

	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "2"}))
	trades := submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "2"}))
	require.Len(t, trades, 1)
	assert.Equal(t, "0.4", trades[0].TakerFee.String())
	assert.Equal(t, "0.2", trades[0].MakerFee.String())
}

func TestEngineDeterministicReplay(t *testing.T) {
	build := func() []*orderSpec {
		return []*orderSpec{
			{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "5"},
			{Side: SideSell, Type: TypeLimit, Price: "102", Quantity: "5"},
			{Side: SideSell, Type: TypeStop, StopPrice: "99", Quantity: "2"},
			{Side: SideSell, Type: TypeLimit, Price: "100", Quantity: "3"},
			{Side: SideBuy, Type: TypeMarket, Quantity: "4"},
			{Side: SideSell, Type: TypeLimit, Price: "98", Quantity: "6", TimeInForce: IOC},
		}
	}

	run := func() ([]*Trade, []*Order) {
		e := newEngine()
		base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

		orders := make([]*Order, 0)
		trades := make([]*Trade, 0)
		for i, spec := range build() {
			o := newOrder(*spec)
			o.ID = int64(i + 1)
			o.CreatedAt = base.Add(time.Duration(i) * time.Second)
			orders = append(orders, o)
			trades = append(trades, submit(t, e, o)...)
		}

		return trades, orders
	}

	trades1, orders1 := run()
	trades2, orders2 := run()

	require.Equal(t, len(trades1), len(trades2))
	for i := range trades1 {
		assert.True(t, trades1[i].Price.Equal(trades2[i].Price))
		assert.True(t, trades1[i].Quantity.Equal(trades2[i].Quantity))
		assert.Equal(t, trades1[i].TakerOrderID(), trades2[i].TakerOrderID())
		assert.Equal(t, trades1[i].MakerOrderID(), trades2[i].MakerOrderID())
	}

	for i := range orders1 {
		assert.Equal(t, orders1[i].Status, orders2[i].Status)
		assert.True(t, orders1[i].FilledQuantity.Equal(orders2[i].FilledQuantity))
		assertConservation(t, orders1[i], trades1)
	}
}

func TestEngineDepthLocksConsistentSnapshot(t *testing.T) {
	e := newEngine()

	submit(t, e, newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "5"}))
	submit(t, e, newOrder(orderSpec{Side: SideSell, Type: TypeLimit, Price: "101", Quantity: "2"}))

	snapshot := e.Depth(10)
	require.Len(t, snapshot.Bids, 1)
	require.Len(t, snapshot.Asks, 1)
	assert.Equal(t, "reitA", snapshot.AssetID)
}

func TestEngineDuplicateRemainderCancelled(t *testing.T) {
	e := newEngine()

	o := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "5"})
	submit(t, e, o)

	// same identity replayed; the refused remainder must not report itself live
	dup := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Price: "100", Quantity: "3"})
	dup.ID = o.ID

	trades, _, err := e.Submit(dup)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, StatusCancelled, dup.Status)
	assert.Equal(t, "5", e.OrderBook.BestBid().Total().String(), "original stays untouched")
}

func TestEngineRestoreLastTradePrice(t *testing.T) {
	e := newEngine()

	e.RestoreLastTradePrice(d("100"))
	assert.Equal(t, "100", e.Depth(0).LastTradePrice.String())

	// a stop whose trigger is already satisfied by the restored price fires
	// immediately instead of parking
	stop := newOrder(orderSpec{Side: SideSell, Type: TypeStop, StopPrice: "100", Quantity: "1"})
	trades := submit(t, e, stop)
	assert.Empty(t, trades)
	assert.Equal(t, StatusCancelled, stop.Status)

	parked := newOrder(orderSpec{Side: SideSell, Type: TypeStop, StopPrice: "90", Quantity: "1"})
	submit(t, e, parked)
	assert.Equal(t, StatusTriggerPending, parked.Status)
}

func TestEngineRejectsInvalidOrder(t *testing.T) {
	e := newEngine()

	o := newOrder(orderSpec{Side: SideBuy, Type: TypeLimit, Quantity: "5"})
	_, _, err := e.Submit(o)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
