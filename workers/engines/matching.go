package engines

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zsmartex/tokex/config"
	"github.com/zsmartex/tokex/matching"
	"github.com/zsmartex/tokex/trading"
	"github.com/zsmartex/tokex/types"
)

type Worker interface {
	Process(payload []byte) error
}

// MatchingWorker feeds commands from the engine intake topic into the
// exchange. Rejections (validation, closed market, bad cancels) are final:
// they are logged and acked, never redelivered.
type MatchingWorker struct {
	Exchange *trading.Exchange
}

func NewMatchingWorker(exchange *trading.Exchange) *MatchingWorker {
	return &MatchingWorker{Exchange: exchange}
}

func (w *MatchingWorker) Process(payload []byte) error {
	var message types.EnginePayloadMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return err
	}

	switch message.Action {
	case types.ActionSubmit:
		if message.Order == nil {
			return errors.New("market.engine.missing_order")
		}

		order, trades, err := w.Exchange.SubmitOrder(message.Order)
		if w.rejected(err) {
			return nil
		}
		if err != nil {
			return err
		}

		config.Logger.Infof("[tokex.worker] order %d %s: %d trade(s)", order.ID, order.Status, len(trades))
		return nil

	case types.ActionCancel:
		_, err := w.Exchange.CancelOrder(message.OrderID, message.Owner)
		if w.rejected(err) {
			return nil
		}

		return err

	default:
		return fmt.Errorf("market.engine.unknown_action: %s", message.Action)
	}
}

func (w *MatchingWorker) rejected(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, matching.ErrInvalidOrder),
		errors.Is(err, trading.ErrMarketClosed),
		errors.Is(err, trading.ErrAssetNotFound),
		errors.Is(err, trading.ErrOrderNotFound),
		errors.Is(err, trading.ErrForbidden),
		errors.Is(err, trading.ErrInvalidState):
		config.Logger.Infof("[tokex.worker] command rejected: %v", err)
		return true
	default:
		return false
	}
}
