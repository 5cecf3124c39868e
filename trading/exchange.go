package trading

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
)

// Asset is the registry record consulted before an order reaches a router.
type Asset struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TickSize     decimal.Decimal `json:"tick_size"`
	LotSize      decimal.Decimal `json:"lot_size"`
	Tradeable    bool            `json:"tradeable"`
	MakerFeeRate decimal.Decimal `json:"maker_fee_rate"`
	TakerFeeRate decimal.Decimal `json:"taker_fee_rate"`
}

// AssetRegistry is the external asset/tick-size collaborator. The engine
// only reads from it.
type AssetRegistry interface {
	GetAsset(assetID string) (*Asset, error)
}

// SeedRegistry serves assets from the YAML seed loaded by config.
type SeedRegistry struct {
	assets map[string]*Asset
}

func NewSeedRegistry(seeds []config.AssetSeed) *SeedRegistry {
	assets := make(map[string]*Asset, len(seeds))

	for _, seed := range seeds {
		assets[seed.ID] = &Asset{
			ID:           seed.ID,
			Name:         seed.Name,
			TickSize:     seed.TickSize,
			LotSize:      seed.LotSize,
			Tradeable:    seed.Tradeable,
			MakerFeeRate: seed.MakerFeeRate,
			TakerFeeRate: seed.TakerFeeRate,
		}
	}

	return &SeedRegistry{assets: assets}
}

func (r *SeedRegistry) GetAsset(assetID string) (*Asset, error) {
	asset, found := r.assets[assetID]
	if !found {
		return nil, ErrAssetNotFound
	}

	return asset, nil
}

// Exchange ties the pieces together: registry checks and validation in
// front, one router per asset behind, the shared ledger underneath.
// Commands for different assets run fully in parallel.
type Exchange struct {
	registry AssetRegistry
	ledger   *TradeLedger
	sink     EventSink

	routersMutex sync.RWMutex
	routers      map[string]*OrderRouter

	lastOrderID int64
}

func NewExchange(registry AssetRegistry, sink EventSink) *Exchange {
	return &Exchange{
		registry: registry,
		ledger:   NewTradeLedger(),
		sink:     sink,
		routers:  make(map[string]*OrderRouter),
	}
}

func (e *Exchange) Ledger() *TradeLedger {
	return e.ledger
}

func (e *Exchange) router(asset *Asset) *OrderRouter {
	e.routersMutex.RLock()
	r, found := e.routers[asset.ID]
	e.routersMutex.RUnlock()

	if found {
		return r
	}

	e.routersMutex.Lock()
	defer e.routersMutex.Unlock()

	if r, found = e.routers[asset.ID]; found {
		return r
	}

	engine := matching.NewEngine(asset.ID, asset.MakerFeeRate, asset.TakerFeeRate)
	r = NewOrderRouter(engine, e.ledger, e.sink)
	e.routers[asset.ID] = r

	config.Logger.Infof("[tokex.exchange] engine for %s started", asset.ID)

	return r
}

// SubmitOrder validates, stamps identity and routes the order. Validation
// failures happen before admission, with no state change.
func (e *Exchange) SubmitOrder(o *matching.Order) (matching.Order, []*matching.Trade, error) {
	asset, err := e.registry.GetAsset(o.AssetID)
	if err != nil {
		return matching.Order{}, nil, err
	}

	if !asset.Tradeable {
		return matching.Order{}, nil, ErrMarketClosed
	}

	if err := o.Validate(); err != nil {
		return matching.Order{}, nil, err
	}

	if err := validateScale(o, asset); err != nil {
		return matching.Order{}, nil, err
	}

	if o.TimeInForce == "" {
		o.TimeInForce = matching.GTC
	}

	o.ID = atomic.AddInt64(&e.lastOrderID, 1)
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	o.Status = matching.StatusPending
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	return e.router(asset).Submit(o)
}

// validateScale enforces the asset's price tick and quantity lot.
func validateScale(o *matching.Order, asset *Asset) error {
	if asset.LotSize.IsPositive() && !o.Quantity.Mod(asset.LotSize).IsZero() {
		return fmt.Errorf("%w: quantity %s breaks lot size %s", matching.ErrInvalidOrder, o.Quantity, asset.LotSize)
	}

	if asset.TickSize.IsPositive() {
		if o.Price.Valid && !o.Price.Decimal.Mod(asset.TickSize).IsZero() {
			return fmt.Errorf("%w: price %s breaks tick size %s", matching.ErrInvalidOrder, o.Price.Decimal, asset.TickSize)
		}

		if o.StopPrice.Valid && !o.StopPrice.Decimal.Mod(asset.TickSize).IsZero() {
			return fmt.Errorf("%w: stop price %s breaks tick size %s", matching.ErrInvalidOrder, o.StopPrice.Decimal, asset.TickSize)
		}
	}

	return nil
}

// RestoreOrder re-admits a persisted live order during restart replay. The
// order keeps its identity and timestamps; the ID counter is advanced so
// fresh submissions never collide with restored ones.
func (e *Exchange) RestoreOrder(o *matching.Order) error {
	asset, err := e.registry.GetAsset(o.AssetID)
	if err != nil {
		return err
	}

	for {
		current := atomic.LoadInt64(&e.lastOrderID)
		if o.ID <= current || atomic.CompareAndSwapInt64(&e.lastOrderID, current, o.ID) {
			break
		}
	}

	_, _, err = e.router(asset).Submit(o)

	return err
}

// RestoreLastTradePrice seeds an asset's last trade price from the durable
// trade history, before replay re-admits its dormant stops.
func (e *Exchange) RestoreLastTradePrice(assetID string, price decimal.Decimal) error {
	asset, err := e.registry.GetAsset(assetID)
	if err != nil {
		return err
	}

	e.router(asset).Engine.RestoreLastTradePrice(price)

	return nil
}

// CancelOrder removes the order on behalf of owner, routed through the same
// serialization point as submissions for its asset.
func (e *Exchange) CancelOrder(orderID int64, owner string) (matching.Order, error) {
	recorded, err := e.ledger.GetOrder(orderID)
	if err != nil {
		return matching.Order{}, err
	}

	asset, err := e.registry.GetAsset(recorded.AssetID)
	if err != nil {
		return matching.Order{}, err
	}

	return e.router(asset).Cancel(orderID, owner)
}

// ExpireOrder is the sweep-facing variant of CancelOrder.
func (e *Exchange) ExpireOrder(orderID int64) (matching.Order, error) {
	recorded, err := e.ledger.GetOrder(orderID)
	if err != nil {
		return matching.Order{}, err
	}

	asset, err := e.registry.GetAsset(recorded.AssetID)
	if err != nil {
		return matching.Order{}, err
	}

	return e.router(asset).Expire(orderID)
}

func (e *Exchange) GetOrder(orderID int64) (matching.Order, error) {
	return e.ledger.GetOrder(orderID)
}

func (e *Exchange) ListTrades(assetID, owner string, limit int) []*matching.Trade {
	return e.ledger.ListTrades(assetID, owner, limit)
}

// GetOrderBook returns the aggregated depth of an asset's live book.
func (e *Exchange) GetOrderBook(assetID string, depth int) (*matching.DepthSnapshot, error) {
	asset, err := e.registry.GetAsset(assetID)
	if err != nil {
		return nil, err
	}

	return e.router(asset).Engine.Depth(depth), nil
}

// Close drains every router.
func (e *Exchange) Close() {
	e.routersMutex.Lock()
	defer e.routersMutex.Unlock()

	for _, r := range e.routers {
		r.Close()
	}
}
