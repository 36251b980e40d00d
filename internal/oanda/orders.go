package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

// https://developer.oanda.com/rest-live-v20/order-ep/

type marketOrder struct {
	Type         string `json:"type"`
	Instrument   string `json:"instrument"`
	Units        string `json:"units"`
	TimeInForce  string `json:"timeInForce"`
	PositionFill string `json:"positionFill"`
}

// PlaceOrder sends a fill-or-kill market order. Sells are negative units.
// A cancelled order is reported as rejected, not as an error.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if req.Quantity <= 0 {
		return types.OrderResult{}, fmt.Errorf("order quantity must be positive, got %d", req.Quantity)
	}

	units := req.Quantity
	if req.Action == types.SELL {
		units = -units
	}

	payload, err := json.Marshal(map[string]marketOrder{
		"order": {
			Type:         "MARKET",
			Instrument:   req.Instrument,
			Units:        strconv.FormatInt(units, 10),
			TimeInForce:  "FOK",
			PositionFill: "DEFAULT",
		},
	})
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("failed to encode order: %w", err)
	}

	oandaLog.Info("Placing market order", "instrument", req.Instrument, "action", req.Action, "units", units)

	body, err := c.do(ctx, fasthttp.MethodPost, "/v3/accounts/"+c.AccountId+"/orders", nil, payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && gjson.GetBytes(body, "orderRejectTransaction").Exists() {
			return types.OrderResult{
				OrderID: gjson.GetBytes(body, "orderRejectTransaction.id").String(),
				Status:  types.OrderRejected,
			}, nil
		}
		return types.OrderResult{}, fmt.Errorf("failed to place order for %s: %w", req.Instrument, err)
	}

	return parseOrderResponse(body), nil
}

func parseOrderResponse(body []byte) types.OrderResult {
	res := gjson.ParseBytes(body)

	if fill := res.Get("orderFillTransaction"); fill.Exists() {
		price, _ := decimal.NewFromString(fill.Get("price").String())
		qty := fill.Get("units").Int()
		if qty < 0 {
			qty = -qty
		}
		return types.OrderResult{
			OrderID:   fill.Get("orderID").String(),
			Filled:    true,
			FillPrice: price,
			Quantity:  qty,
			Status:    types.OrderFilled,
		}
	}

	if cancel := res.Get("orderCancelTransaction"); cancel.Exists() {
		oandaLog.Warn("Order cancelled", "order_id", cancel.Get("orderID").String(), "reason", cancel.Get("reason").String())
		return types.OrderResult{
			OrderID: cancel.Get("orderID").String(),
			Status:  types.OrderRejected,
		}
	}

	return types.OrderResult{
		OrderID: res.Get("orderCreateTransaction.id").String(),
		Status:  types.OrderPending,
	}
}
