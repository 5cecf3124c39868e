package engines

import (
	"encoding/json"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
	"github.com/zsmartex/tokex/models"
)

const settlementTopic = "settlement"

// TradeExecutorWorker consumes trades emitted by the routers, makes them
// durable and forwards them to the settlement sink. Persist failures bubble
// up so the message is redelivered; the UUID dedup in models keeps the
// retry harmless.
type TradeExecutorWorker struct {
}

func NewTradeExecutorWorker() *TradeExecutorWorker {
	return &TradeExecutorWorker{}
}

func (w *TradeExecutorWorker) Process(payload []byte) error {
	var trade *matching.Trade
	if err := json.Unmarshal(payload, &trade); err != nil {
		return err
	}

	if err := models.SaveTrade(trade); err != nil {
		return err
	}

	for _, o := range []matching.Order{trade.TakerOrder, trade.MakerOrder} {
		if err := models.SaveOrder(o); err != nil {
			return err
		}
	}

	if err := config.Kafka.Publish(settlementTopic, payload); err != nil {
		return err
	}

	config.Logger.Debugf("[tokex.executor] trade %s settled for %s", trade.UUID, trade.AssetID)

	return nil
}
