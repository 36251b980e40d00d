package instrument

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwtly10/tradebot/internal/logging"
	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
)

var resolveLog = logging.New("instrument")

var (
	ErrNoSignal          = errors.New("no directional signal")
	ErrNoUnderlyingPrice = errors.New("underlying price unavailable")
	ErrNoContract        = errors.New("no matching option contract")
)

// Target is what to trade for a signal.
type Target struct {
	Instrument string
	Side       types.Side
}

type Resolver interface {
	Resolve(ctx context.Context, signal types.Signal) (Target, error)
}

type Quoter interface {
	LivePrice(ctx context.Context, instrument string) (decimal.NullDecimal, error)
}

// DirectResolver trades the configured instrument itself: Buy goes Long,
// Sell goes Short.
type DirectResolver struct {
	Instrument string
}

func (r DirectResolver) Resolve(_ context.Context, signal types.Signal) (Target, error) {
	switch signal {
	case types.Buy:
		return Target{Instrument: r.Instrument, Side: types.Long}, nil
	case types.Sell:
		return Target{Instrument: r.Instrument, Side: types.Short}, nil
	default:
		return Target{}, ErrNoSignal
	}
}

const DefaultStrikeStep = 50

// ATMResolver buys the at-the-money call on Buy and the at-the-money put on
// Sell. Both are Long positions on the option.
type ATMResolver struct {
	underlying string
	quoter     Quoter
	contracts  []Contract
	step       decimal.Decimal
	now        func() time.Time
}

func NewATMResolver(underlying string, quoter Quoter, contracts []Contract, strikeStep int64) *ATMResolver {
	if strikeStep <= 0 {
		strikeStep = DefaultStrikeStep
	}
	return &ATMResolver{
		underlying: underlying,
		quoter:     quoter,
		contracts:  contracts,
		step:       decimal.NewFromInt(strikeStep),
		now:        time.Now,
	}
}

func (r *ATMResolver) Resolve(ctx context.Context, signal types.Signal) (Target, error) {
	var typ OptionType
	switch signal {
	case types.Buy:
		typ = Call
	case types.Sell:
		typ = Put
	default:
		return Target{}, ErrNoSignal
	}

	price, err := r.quoter.LivePrice(ctx, r.underlying)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s: %v", ErrNoUnderlyingPrice, r.underlying, err)
	}
	if !price.Valid {
		return Target{}, fmt.Errorf("%w: %s", ErrNoUnderlyingPrice, r.underlying)
	}

	strike := ATMStrike(price.Decimal, r.step)
	c, ok := Nearest(r.candidates(typ), strike)
	if !ok {
		return Target{}, fmt.Errorf("%w: %s %s near %s", ErrNoContract, r.underlying, typ, strike)
	}

	resolveLog.Debug("Resolved ATM option", "underlying", r.underlying, "price", price.Decimal.String(), "atm_strike", strike.String(), "contract", c.Key, "strike", c.Strike.String())
	return Target{Instrument: c.Key, Side: types.Long}, nil
}

// candidates are the contracts of the given type on the nearest unexpired
// expiry. Contracts without an expiry are always candidates.
func (r *ATMResolver) candidates(typ OptionType) []Contract {
	today := r.now().UTC().Truncate(24 * time.Hour)

	var nearest time.Time
	for _, c := range r.contracts {
		if c.Type != typ || !r.sameUnderlying(c) || c.Expiry.IsZero() || c.Expiry.Before(today) {
			continue
		}
		if nearest.IsZero() || c.Expiry.Before(nearest) {
			nearest = c.Expiry
		}
	}

	var out []Contract
	for _, c := range r.contracts {
		if c.Type != typ || !r.sameUnderlying(c) {
			continue
		}
		if c.Expiry.IsZero() || c.Expiry.Equal(nearest) {
			out = append(out, c)
		}
	}
	return out
}

func (r *ATMResolver) sameUnderlying(c Contract) bool {
	return c.Underlying == "" || c.Underlying == r.underlying
}

// ATMStrike rounds price to the nearest multiple of step, halves away from zero.
func ATMStrike(price, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return price
	}
	return price.Div(step).Round(0).Mul(step)
}

// Nearest returns the contract whose strike equals target, otherwise the
// closest one. Ties keep the first in chain order.
func Nearest(contracts []Contract, target decimal.Decimal) (Contract, bool) {
	if len(contracts) == 0 {
		return Contract{}, false
	}
	best := contracts[0]
	bestDiff := best.Strike.Sub(target).Abs()
	for _, c := range contracts[1:] {
		diff := c.Strike.Sub(target).Abs()
		if diff.LessThan(bestDiff) {
			best, bestDiff = c, diff
		}
	}
	return best, true
}
