package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tokex/config"
)

type Asset struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	Symbol       string          `json:"symbol" gorm:"uniqueIndex"`
	Name         string          `json:"name"`
	TickSize     decimal.Decimal `json:"tick_size"`
	LotSize      decimal.Decimal `json:"lot_size"`
	Tradeable    bool            `json:"tradeable"`
	MakerFeeRate decimal.Decimal `json:"maker_fee_rate" gorm:"default:0.0"`
	TakerFeeRate decimal.Decimal `json:"taker_fee_rate" gorm:"default:0.0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func GetAssetBySymbol(symbol string) (*Asset, error) {
	asset := &Asset{}

	if err := config.DataBase.First(asset, "symbol = ?", symbol).Error; err != nil {
		return nil, err
	}

	return asset, nil
}

// SeedAssets upserts the YAML seed registry into the assets table so the
// database view matches what the engines were booted with.
func SeedAssets(seeds []config.AssetSeed) error {
	for _, seed := range seeds {
		asset := &Asset{}

		err := config.DataBase.Where("symbol = ?", seed.ID).First(asset).Error
		if err != nil {
			asset = &Asset{Symbol: seed.ID}
		}

		asset.Name = seed.Name
		asset.TickSize = seed.TickSize
		asset.LotSize = seed.LotSize
		asset.Tradeable = seed.Tradeable
		asset.MakerFeeRate = seed.MakerFeeRate
		asset.TakerFeeRate = seed.TakerFeeRate

		if err := config.DataBase.Save(asset).Error; err != nil {
			return err
		}
	}

	return nil
}
