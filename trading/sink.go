package trading

import (
	"encoding/json"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
)

// KafkaSink hands executed trades to the settlement/custody process over the
// trade_executor topic and order-state snapshots to the order processor.
// At-least-once: the trade consumer deduplicates on the trade UUID, the
// order consumer upserts by ID.
type KafkaSink struct {
	TradeTopic string
	OrderTopic string
}

func NewKafkaSink() *KafkaSink {
	return &KafkaSink{
		TradeTopic: "trade_executor",
		OrderTopic: "order_processor",
	}
}

func (s *KafkaSink) PublishTrade(trade *matching.Trade) error {
	message, err := json.Marshal(trade)
	if err != nil {
		return err
	}

	return config.Kafka.Publish(s.TradeTopic, message)
}

func (s *KafkaSink) PublishOrder(order matching.Order) error {
	message, err := json.Marshal(order)
	if err != nil {
		return err
	}

	return config.Kafka.Publish(s.OrderTopic, message)
}
