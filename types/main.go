package types

import "github.com/zsmartex/tokex/matching"

type PayloadAction = string

var (
	ActionSubmit PayloadAction = "submit"
	ActionCancel PayloadAction = "cancel"
)

// EngineTradePayload is the message published to the settlement sink and
// consumed by the trade executor.
type EngineTradePayload = matching.Trade

// EnginePayloadMessage is one command on the engine intake topic.
type EnginePayloadMessage struct {
	Action  PayloadAction   `json:"action"`
	Order   *matching.Order `json:"order,omitempty"`
	OrderID int64           `json:"order_id,omitempty"`
	Owner   string          `json:"owner,omitempty"`
}
