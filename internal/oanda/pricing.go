package oanda

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

var two = decimal.NewFromInt(2)

// LivePrice returns the mid of the best bid and ask. A missing quote, such as
// a closed market with an empty book, is an invalid NullDecimal and no error.
func (c *Client) LivePrice(ctx context.Context, instrument string) (decimal.NullDecimal, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, "/v3/accounts/"+c.AccountId+"/pricing", map[string]string{
		"instruments": instrument,
	}, nil)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to fetch price for %s: %w", instrument, err)
	}

	for _, price := range gjson.GetBytes(body, "prices").Array() {
		if price.Get("instrument").String() != instrument {
			continue
		}

		bid, bidErr := decimal.NewFromString(price.Get("bids.0.price").String())
		ask, askErr := decimal.NewFromString(price.Get("asks.0.price").String())
		if bidErr != nil || askErr != nil {
			oandaLog.Debug("Incomplete book", "instrument", instrument, "tradeable", price.Get("tradeable").Bool())
			return decimal.NullDecimal{}, nil
		}

		return decimal.NewNullDecimal(bid.Add(ask).Div(two)), nil
	}

	return decimal.NullDecimal{}, nil
}
