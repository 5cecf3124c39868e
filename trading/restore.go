package trading

import (
	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/models"
)

// RestoreFromStore rebuilds every asset's book from the durable rows. Last
// trade prices go in first so re-admitted stops see the same trigger
// reference as before the restart, then live orders replay in ID order.
func RestoreFromStore(exchange *Exchange, seeds []config.AssetSeed) error {
	for _, seed := range seeds {
		price, err := models.LastTradePrice(seed.ID)
		if err != nil {
			return err
		}

		if price.Valid {
			if err := exchange.RestoreLastTradePrice(seed.ID, price.Decimal); err != nil {
				return err
			}
		}
	}

	live, err := models.LiveOrders("")
	if err != nil {
		return err
	}

	for _, record := range live {
		if err := exchange.RestoreOrder(record.ToEngine()); err != nil {
			config.Logger.Errorf("[tokex.restore] order %d: %v", record.ID, err)
		}
	}

	config.Logger.Infof("[tokex.restore] %d live orders restored", len(live))

	return nil
}
