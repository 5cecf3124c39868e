package config

import (
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// AssetSeed is one entry of the asset registry seed file. Markets that are
// not listed, or listed with tradeable false, reject every order.
type AssetSeed struct {
	ID           string          `yaml:"id"`
	Name         string          `yaml:"name"`
	TickSize     decimal.Decimal `yaml:"tick_size"`
	LotSize      decimal.Decimal `yaml:"lot_size"`
	Tradeable    bool            `yaml:"tradeable"`
	MakerFeeRate decimal.Decimal `yaml:"maker_fee_rate"`
	TakerFeeRate decimal.Decimal `yaml:"taker_fee_rate"`
}

var Assets []AssetSeed

func LoadAssets() error {
	path := os.Getenv("ASSETS_FILE")
	if path == "" {
		path = "config/assets.yml"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(raw, &Assets)
}
