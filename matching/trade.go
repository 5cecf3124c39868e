package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade represents two opposed matched orders. The price is always the
// resting (maker) order's price. The embedded orders are value snapshots
// taken right after the fill, so a trade never observes later mutation.
type Trade struct {
	ID         int64           `json:"id"`
	UUID       uuid.UUID       `json:"uuid"`
	AssetID    string          `json:"asset_id"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
	TakerFee   decimal.Decimal `json:"taker_fee"`
	MakerFee   decimal.Decimal `json:"maker_fee"`
	TakerOrder Order           `json:"taker_order"`
	MakerOrder Order           `json:"maker_order"`
	ExecutedAt time.Time       `json:"executed_at"`
}

func (t *Trade) TakerOrderID() int64 {
	return t.TakerOrder.ID
}

func (t *Trade) MakerOrderID() int64 {
	return t.MakerOrder.ID
}

// Fee computes quantity*price*rate rounded half even, so repeated partial
// fills do not accumulate rounding drift in either party's favor.
func Fee(quantity, price, rate decimal.Decimal, scale int32) decimal.Decimal {
	return quantity.Mul(price).Mul(rate).RoundBank(scale)
}
