package trading

import (
	"sync"
	"time"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
)

// EventSink receives executed trades and order-state snapshots after the
// serialized mutation has completed. Publishing is fire and forget from the
// engine's point of view: the state is authoritative once it is in the
// ledger, and delivery failures are retried without re-running the match.
type EventSink interface {
	PublishTrade(trade *matching.Trade) error
	PublishOrder(order matching.Order) error
}

const (
	routerQueueCap   = 1024
	depthCacheLevels = 50
	publishAttempts  = 3
)

type routerAction string

const (
	actionSubmit routerAction = "submit"
	actionCancel routerAction = "cancel"
	actionExpire routerAction = "expire"
)

type routerCommand struct {
	action  routerAction
	order   *matching.Order
	orderID int64
	owner   string
	reply   chan routerResult
}

type routerResult struct {
	order  matching.Order
	trades []*matching.Trade
	err    error
}

type routerEvent struct {
	trade *matching.Trade
	order *matching.Order
	depth *matching.DepthSnapshot
}

// OrderRouter is the per-asset serialization boundary. One goroutine owns
// the asset's engine and applies commands strictly in admission order;
// callers block until their command has been applied. External effects run
// on a second goroutine so the command loop never waits on I/O.
type OrderRouter struct {
	AssetID string
	Engine  *matching.Engine

	ledger   *TradeLedger
	sink     EventSink
	commands chan routerCommand
	events   chan routerEvent
	quit     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once

	closeMutex sync.RWMutex
	closed     bool
}

func NewOrderRouter(engine *matching.Engine, ledger *TradeLedger, sink EventSink) *OrderRouter {
	r := &OrderRouter{
		AssetID:  engine.AssetID,
		Engine:   engine,
		ledger:   ledger,
		sink:     sink,
		commands: make(chan routerCommand, routerQueueCap),
		events:   make(chan routerEvent, routerQueueCap),
		quit:     make(chan struct{}),
	}

	r.wg.Add(2)
	go r.run()
	go r.emit()

	return r
}

// Submit applies the order against the asset's book and returns its final
// state together with the trades it produced.
func (r *OrderRouter) Submit(o *matching.Order) (matching.Order, []*matching.Trade, error) {
	res := r.do(routerCommand{action: actionSubmit, order: o})
	return res.order, res.trades, res.err
}

// Cancel removes the order on behalf of its owner. An empty owner skips the
// ownership check (administrative path).
func (r *OrderRouter) Cancel(orderID int64, owner string) (matching.Order, error) {
	res := r.do(routerCommand{action: actionCancel, orderID: orderID, owner: owner})
	return res.order, res.err
}

// Expire transitions an order past its ExpiresAt to expired, sharing the
// cancel removal path.
func (r *OrderRouter) Expire(orderID int64) (matching.Order, error) {
	res := r.do(routerCommand{action: actionExpire, orderID: orderID})
	return res.order, res.err
}

func (r *OrderRouter) do(cmd routerCommand) routerResult {
	cmd.reply = make(chan routerResult, 1)

	// The send happens under the read lock so it cannot interleave with
	// Close: every command admitted here is answered, by the loop or by the
	// post-quit drain.
	r.closeMutex.RLock()
	if r.closed {
		r.closeMutex.RUnlock()
		return routerResult{err: ErrRouterClosed}
	}
	r.commands <- cmd
	r.closeMutex.RUnlock()

	return <-cmd.reply
}

func (r *OrderRouter) run() {
	defer r.wg.Done()
	defer close(r.events)

	for {
		select {
		case cmd := <-r.commands:
			cmd.reply <- r.apply(cmd)

		case <-r.quit:
			// reply to everything already admitted, then stop
			for {
				select {
				case cmd := <-r.commands:
					cmd.reply <- routerResult{err: ErrRouterClosed}
				default:
					return
				}
			}
		}
	}
}

func (r *OrderRouter) apply(cmd routerCommand) routerResult {
	switch cmd.action {
	case actionSubmit:
		return r.applySubmit(cmd.order)
	case actionCancel:
		return r.applyEvict(cmd.orderID, cmd.owner, actionCancel)
	case actionExpire:
		return r.applyEvict(cmd.orderID, "", actionExpire)
	default:
		return routerResult{err: ErrRouterClosed}
	}
}

func (r *OrderRouter) applySubmit(o *matching.Order) routerResult {
	trades, triggered, err := r.Engine.Submit(o)
	if err != nil {
		return routerResult{err: err}
	}

	r.ledger.AppendTrades(trades)

	// Triggered stops may end cancelled or resting with no trade carrying
	// them, so each one's final state is recorded explicitly.
	r.ledger.UpsertOrder(*o)
	for _, stop := range triggered {
		r.ledger.UpsertOrder(*stop)
	}

	r.publish(trades, append([]*matching.Order{o}, triggered...))

	return routerResult{order: *o, trades: trades}
}

func (r *OrderRouter) applyEvict(orderID int64, owner string, action routerAction) routerResult {
	recorded, err := r.ledger.GetOrder(orderID)
	if err != nil {
		return routerResult{err: err}
	}

	if owner != "" && recorded.Owner != owner {
		return routerResult{err: ErrForbidden}
	}

	if recorded.Terminal() {
		return routerResult{err: ErrInvalidState}
	}

	var removed *matching.Order
	if action == actionExpire {
		removed = r.Engine.Expire(orderID)
	} else {
		removed = r.Engine.Cancel(orderID)
	}

	if removed == nil {
		// live per the ledger but not resting in this book
		return routerResult{err: ErrInvalidState}
	}

	r.ledger.UpsertOrder(*removed)
	r.publish(nil, []*matching.Order{removed})

	return routerResult{order: *removed}
}

// publish hands trades, order snapshots and a fresh depth view to the
// emitter goroutine. Never blocks the command loop: if the event queue is
// full the depth update is dropped (a later one supersedes it) and the
// remaining events are logged. Orders are copied here because the engine
// keeps mutating the live instances.
func (r *OrderRouter) publish(trades []*matching.Trade, orders []*matching.Order) {
	for _, t := range trades {
		select {
		case r.events <- routerEvent{trade: t}:
		default:
			config.Logger.Errorf("[tokex.router] %s event queue full, trade %d deferred to executor", r.AssetID, t.ID)
		}
	}

	for _, o := range orders {
		snapshot := *o

		select {
		case r.events <- routerEvent{order: &snapshot}:
		default:
			config.Logger.Errorf("[tokex.router] %s event queue full, order %d snapshot dropped", r.AssetID, o.ID)
		}
	}

	select {
	case r.events <- routerEvent{depth: r.Engine.Depth(depthCacheLevels)}:
	default:
	}
}

func (r *OrderRouter) emit() {
	defer r.wg.Done()

	for event := range r.events {
		if event.trade != nil {
			r.publishTrade(event.trade)
		}

		if event.order != nil {
			r.publishOrder(*event.order)
		}

		if event.depth != nil && config.Redis != nil {
			if err := config.Redis.SetKey("tokex:depth:"+r.AssetID, event.depth, 0); err != nil {
				config.Logger.Errorf("[tokex.router] %s depth cache: %v", r.AssetID, err)
			}
		}
	}
}

func (r *OrderRouter) publishTrade(trade *matching.Trade) {
	if r.sink == nil {
		return
	}

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = r.sink.PublishTrade(trade); err == nil {
			return
		}

		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}

	config.Logger.Errorf("[tokex.router] %s publish trade %d: %v", r.AssetID, trade.ID, err)
}

func (r *OrderRouter) publishOrder(order matching.Order) {
	if r.sink == nil {
		return
	}

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = r.sink.PublishOrder(order); err == nil {
			return
		}

		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}

	config.Logger.Errorf("[tokex.router] %s publish order %d: %v", r.AssetID, order.ID, err)
}

// Close stops accepting commands and waits for in-flight work to drain. The
// closed flag is flipped before quit so no caller can enqueue a command the
// drain loop will not see.
func (r *OrderRouter) Close() {
	r.once.Do(func() {
		r.closeMutex.Lock()
		r.closed = true
		r.closeMutex.Unlock()

		close(r.quit)
	})

	r.wg.Wait()
}
