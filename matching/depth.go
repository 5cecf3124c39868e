package matching

import (
	"github.com/shopspring/decimal"
)

// DepthSnapshot is a point-in-time aggregated view of one book, price levels
// ordered best-first on both sides.
type DepthSnapshot struct {
	AssetID        string              `json:"asset_id"`
	Bids           [][]decimal.Decimal `json:"bids"`
	Asks           [][]decimal.Decimal `json:"asks"`
	LastTradePrice decimal.Decimal     `json:"last_trade_price"`
	Sequence       uint64              `json:"sequence"`
}

// Depth aggregates up to limit price levels per side. A non-positive limit
// means the whole book.
func (ob *OrderBook) Depth(limit int) *DepthSnapshot {
	snapshot := &DepthSnapshot{
		AssetID:        ob.AssetID,
		Bids:           make([][]decimal.Decimal, 0),
		Asks:           make([][]decimal.Decimal, 0),
		LastTradePrice: ob.LastTradePrice,
		Sequence:       ob.Sequence,
	}

	bit := ob.Bids.Iterator()
	bit.End()
	for i := 0; bit.Prev() && (limit <= 0 || i < limit); i++ {
		pl := bit.Value().(*PriceLevel)
		snapshot.Bids = append(snapshot.Bids, []decimal.Decimal{pl.Price, pl.Total()})
	}

	ait := ob.Asks.Iterator()
	ait.End()
	for i := 0; ait.Prev() && (limit <= 0 || i < limit); i++ {
		pl := ait.Value().(*PriceLevel)
		snapshot.Asks = append(snapshot.Asks, []decimal.Decimal{pl.Price, pl.Total()})
	}

	return snapshot
}
