package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
)

type Trade struct {
	ID           int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	UUID         uuid.UUID       `json:"uuid" gorm:"uniqueIndex"`
	AssetID      string          `json:"asset_id" gorm:"index"`
	TakerOrderID int64           `json:"taker_order_id" gorm:"index"`
	MakerOrderID int64           `json:"maker_order_id" gorm:"index"`
	Taker        string          `json:"taker" gorm:"index"`
	Maker        string          `json:"maker" gorm:"index"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
	TakerFee     decimal.Decimal `json:"taker_fee" gorm:"default:0.0"`
	MakerFee     decimal.Decimal `json:"maker_fee" gorm:"default:0.0"`
	ExecutedAt   time.Time       `json:"executed_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

func TradeFromEngine(t *matching.Trade) *Trade {
	return &Trade{
		UUID:         t.UUID,
		AssetID:      t.AssetID,
		TakerOrderID: t.TakerOrder.ID,
		MakerOrderID: t.MakerOrder.ID,
		Taker:        t.TakerOrder.Owner,
		Maker:        t.MakerOrder.Owner,
		Price:        t.Price,
		Quantity:     t.Quantity,
		Total:        t.Total,
		TakerFee:     t.TakerFee,
		MakerFee:     t.MakerFee,
		ExecutedAt:   t.ExecutedAt,
	}
}

// SaveTrade persists a trade exactly once. Redelivered settlement messages
// hit the UUID unique index and become no-ops, which is what makes the
// at-least-once hand-off safe.
func SaveTrade(t *matching.Trade) error {
	record := TradeFromEngine(t)

	return config.DataBase.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoNothing: true,
	}).Create(record).Error
}

// LastTradePrice returns the newest persisted trade price for an asset, or
// an invalid decimal when the asset has never traded. Restart replay seeds
// each book's stop-trigger reference from it.
func LastTradePrice(assetID string) (decimal.NullDecimal, error) {
	trade := &Trade{}

	err := config.DataBase.
		Where("asset_id = ?", assetID).
		Order("id desc").
		First(trade).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.NullDecimal{}, nil
	}
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	return decimal.NullDecimal{Decimal: trade.Price, Valid: true}, nil
}

// ListTrades returns persisted trades newest first. An owner matches either
// leg; empty filters are skipped, a non-positive limit means no cap.
func ListTrades(assetID string, owner string, limit int) ([]*Trade, error) {
	var trades []*Trade

	tx := config.DataBase.Order("id desc")

	if assetID != "" {
		tx = tx.Where("asset_id = ?", assetID)
	}

	if owner != "" {
		tx = tx.Where("taker = ? OR maker = ?", owner, owner)
	}

	if limit > 0 {
		tx = tx.Limit(limit)
	}

	if err := tx.Find(&trades).Error; err != nil {
		return nil, err
	}

	return trades, nil
}
