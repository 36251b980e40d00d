package types

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BUY  Action = "BUY"
	SELL Action = "SELL"
)

type Bar struct {
	Timestamp    time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	OpenInterest float64
}

// Action is the direction of an order sent to the execution gateway.
type Action string

// Opposite returns the action that unwinds a.
func (a Action) Opposite() Action {
	if a == BUY {
		return SELL
	}
	return BUY
}

type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Side is the exposure of a position on the instrument it holds.
type Side int

const (
	Flat Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Sign is +1 for Long, -1 for Short and 0 when Flat.
func (s Side) Sign() decimal.Decimal {
	switch s {
	case Long:
		return decimal.NewFromInt(1)
	case Short:
		return decimal.NewFromInt(-1)
	default:
		return decimal.Zero
	}
}

// OpenAction is the order action that opens a position on this side.
func (s Side) OpenAction() Action {
	if s == Short {
		return SELL
	}
	return BUY
}

type OrderStatus string

const (
	OrderFilled   OrderStatus = "FILLED"
	OrderRejected OrderStatus = "REJECTED"
	OrderPending  OrderStatus = "PENDING"
)

type OrderRequest struct {
	Instrument string
	Action     Action
	Quantity   int64
}

type OrderResult struct {
	OrderID   string
	Filled    bool
	FillPrice decimal.Decimal // zero when the gateway did not report one
	Quantity  int64
	Status    OrderStatus
}

// Credential is the bearer token returned by the session provider.
type Credential struct {
	Token     string
	AccountID string
	Expires   time.Time
}
