package oanda

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jwtly10/tradebot/internal/types"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

const (
	DefaultCandleCount   = 100
	MaxCandlesPerRequest = 4000 // Limit is 5000 but we maintain a buffer
)

// FetchBars returns the most recent candles for the instrument, oldest first.
// The last candle may still be forming.
func (c *Client) FetchBars(ctx context.Context, instrument, unit string, interval int) ([]types.Bar, error) {
	g, err := Granularity(unit, interval)
	if err != nil {
		return nil, err
	}
	return c.FetchCandles(ctx, CandleRequest{Instrument: instrument, Granularity: g, Count: c.candleCount()})
}

type CandleRequest struct {
	Instrument  string
	Granularity CandlestickGranularity
	Count       int // Default 500, max 5000
}

func (c *Client) candleCount() int {
	if c.CandleCount > 0 {
		return min(c.CandleCount, MaxCandlesPerRequest)
	}
	return DefaultCandleCount
}

func (c *Client) FetchCandles(ctx context.Context, req CandleRequest) ([]types.Bar, error) {
	query := map[string]string{
		"granularity": req.Granularity.String(),
		"price":       "M",
	}
	if req.Count > 0 {
		query["count"] = strconv.Itoa(req.Count)
	}

	path := "/v3/accounts/" + c.AccountId + "/instruments/" + req.Instrument + "/candles"
	body, err := c.do(ctx, fasthttp.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", req.Instrument, err)
	}

	candles := gjson.GetBytes(body, "candles")
	if !candles.Exists() {
		return nil, fmt.Errorf("candle response for %s has no candles", req.Instrument)
	}

	bars, err := candlesToBars(candles.Array())
	if err != nil {
		return nil, fmt.Errorf("failed to convert candles to bars: %w", err)
	}

	oandaLog.Debug("Fetched candles", "instrument", req.Instrument, "granularity", req.Granularity, "count", len(bars))
	return bars, nil
}

func candlesToBars(candles []gjson.Result) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(candles))
	for _, candle := range candles {
		ts := candle.Get("time").String()
		timestamp, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse candle time %s: %w", ts, err)
		}

		var ohlc [4]float64
		for i, key := range []string{"mid.o", "mid.h", "mid.l", "mid.c"} {
			raw := candle.Get(key).String()
			ohlc[i], err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse candle %s price %q at %s: %w", key, raw, ts, err)
			}
		}

		bars = append(bars, types.Bar{
			Timestamp: timestamp,
			Open:      ohlc[0],
			High:      ohlc[1],
			Low:       ohlc[2],
			Close:     ohlc[3],
			Volume:    candle.Get("volume").Float(),
		})
	}
	return bars, nil
}
