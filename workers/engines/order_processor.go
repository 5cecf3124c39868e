package engines

import (
	"encoding/json"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
	"github.com/zsmartex/tokex/models"
)

// OrderProcessorWorker persists the order-state snapshots the routers emit,
// keeping the orders table in step with the in-memory books. This is what
// makes resting orders that never traded, and triggered stops that died
// without a fill, survive into restart replay.
type OrderProcessorWorker struct {
}

func NewOrderProcessorWorker() *OrderProcessorWorker {
	return &OrderProcessorWorker{}
}

func (w *OrderProcessorWorker) Process(payload []byte) error {
	var order matching.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return err
	}

	if err := models.SaveOrder(order); err != nil {
		return err
	}

	config.Logger.Debugf("[tokex.order_processor] order %d %s", order.ID, order.Status)

	return nil
}
