package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwtly10/tradebot/internal/account"
	"github.com/jwtly10/tradebot/internal/instrument"
	"github.com/jwtly10/tradebot/internal/logging"
	"github.com/jwtly10/tradebot/internal/risk"
	"github.com/jwtly10/tradebot/internal/strategy"
	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
)

var engineLog = logging.New("engine")

var (
	ErrAuth          = errors.New("authentication failed")
	ErrInvalidConfig = errors.New("invalid engine config")
	ErrAlreadyRan    = errors.New("engine already ran")
)

// MarketData is the source of bars and live quotes. FetchBars returns an
// empty slice when there is no data; errors are transport failures.
type MarketData interface {
	FetchBars(ctx context.Context, instrument, unit string, interval int) ([]types.Bar, error)
	LivePrice(ctx context.Context, instrument string) (decimal.NullDecimal, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context) (types.Credential, error)
}

type Config struct {
	Instrument    string
	Unit          string
	Interval      int
	Quantity      int64
	CheckInterval time.Duration
	// MaxRuntime of zero runs until the context is cancelled or a risk stop.
	MaxRuntime time.Duration
	Limits     risk.Limits
	// StopOnPositionRisk ends the session on a stop loss or take profit
	// instead of only closing the position.
	StopOnPositionRisk bool
	// SummaryEvery logs a running summary every N iterations, zero disables it.
	SummaryEvery int
	// BarCount caps the bar window handed to the policy, zero keeps all.
	BarCount int
}

func (c Config) validate() error {
	if c.Instrument == "" {
		return fmt.Errorf("%w: instrument is required", ErrInvalidConfig)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidConfig, c.Quantity)
	}
	if c.CheckInterval < 0 || c.MaxRuntime < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	return nil
}

type Option func(*Engine)

func WithAuthenticator(a Authenticator) Option {
	return func(e *Engine) { e.auth = a }
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithResolver decides what to trade for a signal. The default trades the
// configured instrument directly.
func WithResolver(r instrument.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

func WithLedgerSink(s account.Sink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, s) }
}

// Engine runs one trading session for a single instrument. The loop is
// sequential; Run must be called at most once.
type Engine struct {
	cfg      Config
	market   MarketData
	executor account.Executor
	policy   strategy.Policy

	auth      Authenticator
	clock     Clock
	resolver  instrument.Resolver
	observers []Observer
	sinks     []account.Sink

	account    *account.Account
	state      State
	lastActed  types.Signal
	iteration  int
	stopReason StopReason
}

func NewEngine(cfg Config, market MarketData, executor account.Executor, policy strategy.Policy, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		market:   market,
		executor: executor,
		policy:   policy,
		clock:    wallClock{},
		resolver: instrument.DirectResolver{Instrument: cfg.Instrument},
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.account = account.NewAccount(executor, account.NewLedger(e.sinks...),
		account.WithQuoter(market),
		account.WithClock(e.clock.Now),
	)
	return e
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Account() *account.Account {
	return e.account
}

// Run authenticates, then loops until the context is cancelled, MaxRuntime
// elapses or the risk gate stops the session. Any open position is closed
// before Run returns. Only startup failures are returned as errors.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	if e.state != StateIdle {
		return nil, ErrAlreadyRan
	}
	if err := e.cfg.validate(); err != nil {
		return nil, err
	}

	if e.auth != nil {
		cred, err := e.auth.Authenticate(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		engineLog.Info("Authenticated", "account_id", cred.AccountID)
	}

	start := e.clock.Now()
	e.setState(StateRunning)
	engineLog.Info("Starting trading session",
		"instrument", e.cfg.Instrument,
		"strategy", e.policy.Name(),
		"quantity", e.cfg.Quantity,
		"check_interval", e.cfg.CheckInterval,
		"max_runtime", e.cfg.MaxRuntime)

	for {
		if ctx.Err() != nil {
			e.stopReason = StopCancelled
			break
		}
		if e.cfg.MaxRuntime > 0 && e.clock.Now().Sub(start) >= e.cfg.MaxRuntime {
			e.stopReason = StopMaxRuntime
			break
		}

		e.iteration++
		if e.step(ctx) {
			break
		}

		if e.cfg.SummaryEvery > 0 && e.iteration%e.cfg.SummaryEvery == 0 {
			e.results(start).Calculate().Log(e.iteration)
		}

		if err := e.clock.Sleep(ctx, e.cfg.CheckInterval); err != nil {
			e.stopReason = StopCancelled
			break
		}
	}

	e.setState(StateStopping)

	if e.account.Holding() {
		// the session is over either way, the close must not be abandoned
		e.closePosition(context.WithoutCancel(ctx), account.ExitSessionEnd)
	}

	e.setState(StateStopped)

	results := e.results(start)
	engineLog.Info("Trading session finished",
		"stop_reason", e.stopReason,
		"iterations", e.iteration,
		"trades", len(results.Trades),
		"realized_pnl", e.account.RealizedPnL().String())
	return results, nil
}

// step runs one iteration and reports whether the session must stop.
func (e *Engine) step(ctx context.Context) bool {
	engineLog.Debug("Iteration", "n", e.iteration, "holding", e.account.Holding())

	openPnL := e.openPnL(ctx)
	decision := risk.Evaluate(e.account.Ledger(), e.account.RealizedPnL(), openPnL, e.cfg.Limits)
	if !decision.Continue {
		engineLog.Warn("Risk limit reached", "reason", decision.Reason, "open_pnl", openPnL.String(), "realized_pnl", e.account.RealizedPnL().String())
		e.emit(Event{Kind: EventRiskStop, Reason: decision.Reason})

		if e.account.Holding() {
			e.closePosition(ctx, exitReasonFor(decision.Reason))
		}
		if decision.Reason.AccountLevel() || e.cfg.StopOnPositionRisk {
			e.stopReason = StopReason(decision.Reason)
			return true
		}
	}

	bars, err := e.market.FetchBars(ctx, e.cfg.Instrument, e.cfg.Unit, e.cfg.Interval)
	if err != nil {
		engineLog.Warn("Failed to fetch bars, skipping iteration", "instrument", e.cfg.Instrument, "error", err)
		e.emit(Event{Kind: EventDataUnavailable, Err: err})
		return false
	}
	window := e.cfg.BarCount
	if window <= 0 {
		window = len(bars)
	}
	series, err := types.SeriesFrom(bars, window)
	if err != nil {
		engineLog.Warn("Rejected bar data, skipping iteration", "instrument", e.cfg.Instrument, "error", err)
		e.emit(Event{Kind: EventDataUnavailable, Err: err})
		return false
	}
	last, ok := series.Last()
	if !ok {
		engineLog.Warn("No bar data, skipping iteration", "instrument", e.cfg.Instrument)
		e.emit(Event{Kind: EventDataUnavailable})
		return false
	}

	signal := e.policy.Evaluate(series.Bars())
	engineLog.Debug("Evaluated policy", "signal", signal, "last_acted", e.lastActed, "close", last.Close)

	if signal == types.Hold || signal == e.lastActed {
		return false
	}
	e.emit(Event{Kind: EventSignal, Signal: signal})

	if e.account.Holding() {
		if !e.closePosition(ctx, account.ExitSignal) {
			return false
		}
	}

	target, err := e.resolver.Resolve(ctx, signal)
	if err != nil {
		engineLog.Warn("Could not resolve instrument, skipping trade", "signal", signal, "error", err)
		e.emit(Event{Kind: EventDataUnavailable, Signal: signal, Err: err})
		return false
	}

	pos, err := e.account.Open(ctx, account.OpenRequest{
		Instrument: target.Instrument,
		Side:       target.Side,
		Quantity:   e.cfg.Quantity,
		Signal:     signal,
		RefPrice:   decimal.NewFromFloat(last.Close),
	})
	if err != nil {
		engineLog.Error("Failed to open position", "signal", signal, "instrument", target.Instrument, "error", err)
		e.emit(Event{Kind: EventExecutionFailed, Signal: signal, Err: err})
		return false
	}

	e.lastActed = signal
	e.emit(Event{Kind: EventPositionOpened, Signal: signal, Position: pos})
	return false
}

// openPnL marks the open position to the live price; no quote counts as zero.
func (e *Engine) openPnL(ctx context.Context) decimal.Decimal {
	if !e.account.Holding() {
		return decimal.Zero
	}
	pos := e.account.Position()

	price, err := e.market.LivePrice(ctx, pos.Instrument)
	if err != nil {
		engineLog.Warn("Failed to fetch live price", "instrument", pos.Instrument, "error", err)
		return decimal.Zero
	}
	if !price.Valid {
		engineLog.Debug("No live quote", "instrument", pos.Instrument)
		return decimal.Zero
	}

	pnl := pos.UnrealizedPnL(price.Decimal)
	engineLog.Debug("Marked position", "instrument", pos.Instrument, "price", price.Decimal.String(), "unrealized_pnl", pnl.String())
	return pnl
}

func (e *Engine) closePosition(ctx context.Context, reason account.ExitReason) bool {
	trade, err := e.account.Close(ctx, reason)
	if err != nil {
		engineLog.Error("Failed to close position", "reason", reason, "error", err)
		e.emit(Event{Kind: EventExecutionFailed, Position: e.account.Position(), Err: err})
		return false
	}
	e.emit(Event{Kind: EventPositionClosed, Signal: trade.Signal, Trade: &trade})
	return true
}

func (e *Engine) setState(s State) {
	engineLog.Debug("State change", "from", e.state, "to", s)
	e.state = s
	e.emit(Event{Kind: EventStateChanged, State: s})
}

func (e *Engine) emit(ev Event) {
	ev.Time = e.clock.Now()
	ev.Iteration = e.iteration
	if ev.State == "" {
		ev.State = e.state
	}
	for _, o := range e.observers {
		o(ev)
	}
}

func (e *Engine) results(start time.Time) *Results {
	return &Results{
		Instrument: e.cfg.Instrument,
		Strategy:   e.policy.Name(),
		StartTime:  start,
		EndTime:    e.clock.Now(),
		Iterations: e.iteration,
		StopReason: e.stopReason,
		Trades:     e.account.Ledger().Trades(),
	}
}

func exitReasonFor(r risk.Reason) account.ExitReason {
	switch r {
	case risk.StopLoss:
		return account.ExitStopLoss
	case risk.TakeProfit:
		return account.ExitTakeProfit
	case risk.MaxDailyLoss:
		return account.ExitMaxDailyLoss
	case risk.MaxTradesPerDay:
		return account.ExitMaxTradesPerDay
	default:
		return account.ExitSignal
	}
}
