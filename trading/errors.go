package trading

import "errors"

var (
	ErrAssetNotFound = errors.New("market.asset.not_found")
	ErrMarketClosed  = errors.New("market.asset.market_closed")
	ErrOrderNotFound = errors.New("market.order.not_found")
	ErrForbidden     = errors.New("market.order.forbidden")
	ErrInvalidState  = errors.New("market.order.invalid_state")
	ErrRouterClosed  = errors.New("market.engine.router_closed")
)
