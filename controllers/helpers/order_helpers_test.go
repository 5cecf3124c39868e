package helpers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsmartex/tokex/matching"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func nd(value string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
}

func validParams() CreateOrderParams {
	return CreateOrderParams{
		Asset:    "reitA",
		Side:     "buy",
		OrdType:  "limit",
		Price:    nd("100"),
		Quantity: d("5"),
	}
}

func TestCreateOrderParamsValidate(t *testing.T) {
	errors := Errors{}
	Validate(validParams(), &errors)
	assert.Zero(t, errors.Size())
}

func TestCreateOrderParamsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *CreateOrderParams)
		code   string
	}{
		{
			name:   "missing side",
			mutate: func(p *CreateOrderParams) { p.Side = "" },
		},
		{
			name:   "unknown side",
			mutate: func(p *CreateOrderParams) { p.Side = "hold" },
		},
		{
			name:   "limit without price",
			mutate: func(p *CreateOrderParams) { p.Price = decimal.NullDecimal{} },
		},
		{
			name: "market with price",
			mutate: func(p *CreateOrderParams) {
				p.OrdType = "market"
			},
		},
		{
			name: "stop without stop price",
			mutate: func(p *CreateOrderParams) {
				p.OrdType = "stop"
			},
		},
		{
			name:   "non positive price",
			mutate: func(p *CreateOrderParams) { p.Price = nd("-1") },
			code:   "market.order.non_positive_price",
		},
		{
			name:   "non positive quantity",
			mutate: func(p *CreateOrderParams) { p.Quantity = d("0") },
			code:   "market.order.non_positive_quantity",
		},
		{
			name:   "bad time in force",
			mutate: func(p *CreateOrderParams) { p.TimeInForce = "fok" },
			code:   "market.order.invalid_time_in_force",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)

			errors := Errors{}
			Validate(params, &errors)
			require.NotZero(t, errors.Size())
			if tc.code != "" {
				assert.Contains(t, errors.Errors, tc.code)
			}
		})
	}
}

func TestBuildOrder(t *testing.T) {
	params := CreateOrderParams{
		Asset:       "reitA",
		Side:        "sell",
		OrdType:     "stop",
		StopPrice:   nd("95"),
		Quantity:    d("3"),
		TimeInForce: "ioc",
		ExpiresAt:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}

	o := params.BuildOrder("alice")
	assert.Equal(t, "reitA", o.AssetID)
	assert.Equal(t, "alice", o.Owner)
	assert.Equal(t, matching.SideSell, o.Side)
	assert.Equal(t, matching.TypeStop, o.Type)
	assert.Equal(t, "95", o.StopPrice.Decimal.String())
	assert.Equal(t, matching.IOC, o.TimeInForce)
	require.NotNil(t, o.ExpiresAt)
	assert.Equal(t, params.ExpiresAt, o.ExpiresAt.Unix())
}

func TestBuildOrderDefaultsToMarket(t *testing.T) {
	params := CreateOrderParams{
		Asset:    "reitA",
		Side:     "buy",
		Quantity: d("2"),
	}

	o := params.BuildOrder("bob")
	assert.Equal(t, matching.TypeMarket, o.Type)
	assert.False(t, o.Price.Valid)
	assert.Nil(t, o.ExpiresAt)
}
