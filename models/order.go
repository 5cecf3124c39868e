package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
)

// Order is the durable record of an engine order. The engine stays the
// authority while an order is live; rows here exist for audit, restart
// replay and history queries, keyed by the engine-assigned ID.
type Order struct {
	ID             int64               `json:"id" gorm:"primaryKey"`
	UUID           uuid.UUID           `json:"uuid"`
	AssetID        string              `json:"asset_id" gorm:"index"`
	Owner          string              `json:"owner" gorm:"index"`
	Side           string              `json:"side"`
	OrdType        string              `json:"ord_type"`
	Price          decimal.NullDecimal `json:"price"`
	StopPrice      decimal.NullDecimal `json:"stop_price"`
	Quantity       decimal.Decimal     `json:"quantity"`
	FilledQuantity decimal.Decimal     `json:"filled_quantity" gorm:"default:0.0"`
	TimeInForce    string              `json:"time_in_force"`
	Status         string              `json:"status" gorm:"index"`
	CreatedAt      time.Time           `json:"created_at"`
	ExpiresAt      *time.Time          `json:"expires_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func OrderFromEngine(o matching.Order) *Order {
	return &Order{
		ID:             o.ID,
		UUID:           o.UUID,
		AssetID:        o.AssetID,
		Owner:          o.Owner,
		Side:           string(o.Side),
		OrdType:        string(o.Type),
		Price:          o.Price,
		StopPrice:      o.StopPrice,
		Quantity:       o.Quantity,
		FilledQuantity: o.FilledQuantity,
		TimeInForce:    string(o.TimeInForce),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		ExpiresAt:      o.ExpiresAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// SaveOrder writes the latest snapshot of an order, inserting or updating.
func SaveOrder(o matching.Order) error {
	record := OrderFromEngine(o)

	return config.DataBase.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(record).Error
}

func GetOrder(id int64) (*Order, error) {
	order := &Order{}

	if err := config.DataBase.First(order, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return order, nil
}

// LiveOrders loads every non-terminal order, oldest first, for book replay
// on restart.
func LiveOrders(assetID string) ([]*Order, error) {
	var orders []*Order

	tx := config.DataBase.
		Where("status IN ?", []string{
			string(matching.StatusPending),
			string(matching.StatusPartial),
			string(matching.StatusTriggerPending),
		}).
		Order("id asc")

	if assetID != "" {
		tx = tx.Where("asset_id = ?", assetID)
	}

	if err := tx.Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

func (o *Order) ToEngine() *matching.Order {
	return &matching.Order{
		ID:             o.ID,
		UUID:           o.UUID,
		AssetID:        o.AssetID,
		Owner:          o.Owner,
		Side:           matching.OrderSide(o.Side),
		Type:           matching.OrderType(o.OrdType),
		Price:          o.Price,
		StopPrice:      o.StopPrice,
		Quantity:       o.Quantity,
		FilledQuantity: o.FilledQuantity,
		TimeInForce:    matching.TimeInForce(o.TimeInForce),
		Status:         matching.OrderStatus(o.Status),
		CreatedAt:      o.CreatedAt,
		ExpiresAt:      o.ExpiresAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
