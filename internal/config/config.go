package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jwtly10/tradebot/internal/engine"
	"github.com/jwtly10/tradebot/internal/risk"
	"github.com/jwtly10/tradebot/internal/strategy"
	"github.com/shopspring/decimal"
)

const (
	defaultUnit          = "minutes"
	defaultInterval      = 5
	defaultQuantity      = 1
	defaultCheckInterval = 60 * time.Second
	defaultSummaryEvery  = 10
	defaultBarCount      = 100
	defaultStrikeStep    = 50
)

type Mode string

const (
	ModeDirect  Mode = "direct"
	ModeOptions Mode = "options"
)

// Config keeps the runtime configuration of one trading session.
type Config struct {
	LogLevel string

	Instrument string
	Unit       string
	Interval   int
	Quantity   int64
	BarCount   int

	CheckInterval      time.Duration
	MaxRuntime         time.Duration
	SummaryEvery       int
	Limits             risk.Limits
	StopOnPositionRisk bool

	Strategy       string
	StrategyParams strategy.Params

	Mode            Mode
	OptionChainPath string
	StrikeStep      int64

	Paper bool
	Oanda OandaConfig
}

// OandaConfig stores broker connection parameters.
type OandaConfig struct {
	AccountID string
	APIKey    string
	URL       string
}

// Engine maps the session settings onto the engine config.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Instrument:         c.Instrument,
		Unit:               c.Unit,
		Interval:           c.Interval,
		Quantity:           c.Quantity,
		CheckInterval:      c.CheckInterval,
		MaxRuntime:         c.MaxRuntime,
		Limits:             c.Limits,
		StopOnPositionRisk: c.StopOnPositionRisk,
		SummaryEvery:       c.SummaryEvery,
		BarCount:           c.BarCount,
	}
}

// Load reads the given .env files (default ".env"), if present, then builds
// Config from environment variables. Variables already set in the process
// take precedence over the files.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	var errs []error
	p := &parser{errs: &errs}

	cfg := &Config{
		LogLevel:   getString("LOG_LEVEL", "info"),
		Instrument: getString("INSTRUMENT_KEY", ""),
		Unit:       getString("UNIT", defaultUnit),
		Interval:   p.getInt("INTERVAL", defaultInterval),
		Quantity:   int64(p.getInt("QUANTITY", defaultQuantity)),
		BarCount:   p.getInt("BAR_COUNT", defaultBarCount),

		CheckInterval: p.getDuration("TRADE_CHECK_INTERVAL", defaultCheckInterval),
		MaxRuntime:    p.getDuration("MAX_RUNTIME", 0),
		SummaryEvery:  p.getInt("SUMMARY_EVERY", defaultSummaryEvery),
		Limits: risk.Limits{
			StopLoss:        p.getDecimal("STOP_LOSS"),
			TakeProfit:      p.getDecimal("TAKE_PROFIT"),
			MaxDailyLoss:    p.getDecimal("MAX_DAILY_LOSS"),
			MaxTradesPerDay: p.getInt("MAX_TRADES_PER_DAY", 0),
		},
		StopOnPositionRisk: p.getBool("STOP_ON_POSITION_RISK", false),

		Strategy: getString("STRATEGY", strategy.EMACrossoverName),
		StrategyParams: strategy.Params{
			FastPeriod:   p.getInt("EMA_FAST", 0),
			SlowPeriod:   p.getInt("EMA_SLOW", 0),
			VolumeWindow: p.getInt("VOLUME_WINDOW", 0),
			MinBars:      p.getInt("MIN_BARS", 0),
			STPeriod:     p.getInt("SUPERTREND_PERIOD", 0),
			STMultiplier: p.getFloat("SUPERTREND_MULTIPLIER", 0),
		},

		Mode:            Mode(strings.ToLower(getString("POSITION_MODE", string(ModeDirect)))),
		OptionChainPath: getString("OPTION_CHAIN_PATH", ""),
		StrikeStep:      int64(p.getInt("STRIKE_STEP", defaultStrikeStep)),

		Paper: p.getBool("PAPER_TRADING", true),
		Oanda: OandaConfig{
			AccountID: os.Getenv("OANDA_ACCOUNT_ID"),
			APIKey:    os.Getenv("OANDA_API_KEY"),
			URL:       os.Getenv("OANDA_API_URL"),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the session cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Instrument == "" {
		errs = append(errs, errors.New("INSTRUMENT_KEY is required"))
	}
	if c.Quantity <= 0 {
		errs = append(errs, fmt.Errorf("QUANTITY must be positive, got %d", c.Quantity))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("INTERVAL must be positive, got %d", c.Interval))
	}
	if c.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("TRADE_CHECK_INTERVAL must be positive, got %s", c.CheckInterval))
	}
	if c.MaxRuntime < 0 {
		errs = append(errs, fmt.Errorf("MAX_RUNTIME must not be negative, got %s", c.MaxRuntime))
	}
	// limits are amounts; zero disables a check, so a negative value would too
	for _, limit := range []struct {
		key    string
		amount decimal.Decimal
	}{
		{"STOP_LOSS", c.Limits.StopLoss},
		{"TAKE_PROFIT", c.Limits.TakeProfit},
		{"MAX_DAILY_LOSS", c.Limits.MaxDailyLoss},
	} {
		if limit.amount.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", limit.key, limit.amount))
		}
	}
	if c.Limits.MaxTradesPerDay < 0 {
		errs = append(errs, fmt.Errorf("MAX_TRADES_PER_DAY must not be negative, got %d", c.Limits.MaxTradesPerDay))
	}
	if c.BarCount < 0 {
		errs = append(errs, fmt.Errorf("BAR_COUNT must not be negative, got %d", c.BarCount))
	}
	if minBars, err := strategy.MinBars(c.Strategy, c.StrategyParams); err != nil {
		errs = append(errs, fmt.Errorf("STRATEGY: %w", err))
	} else if c.BarCount > 0 && c.BarCount < minBars {
		errs = append(errs, fmt.Errorf("BAR_COUNT must be at least %d for %s, got %d", minBars, c.Strategy, c.BarCount))
	}
	switch c.Mode {
	case ModeDirect:
	case ModeOptions:
		if c.OptionChainPath == "" {
			errs = append(errs, errors.New("OPTION_CHAIN_PATH is required in options mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("POSITION_MODE must be %q or %q, got %q", ModeDirect, ModeOptions, c.Mode))
	}
	if c.Oanda.AccountID == "" || c.Oanda.APIKey == "" {
		errs = append(errs, errors.New("OANDA_ACCOUNT_ID and OANDA_API_KEY are required"))
	}
	return errors.Join(errs...)
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Info("No env file found, using environment variables", "file", f)
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs *[]error
}

func (p parser) fail(err error) {
	*p.errs = append(*p.errs, err)
}

func (p parser) getInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		p.fail(fmt.Errorf("convert %s value %q to int: %w", key, value, err))
		return fallback
	}
	return parsed
}

func (p parser) getFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		p.fail(fmt.Errorf("convert %s value %q to float: %w", key, value, err))
		return fallback
	}
	return parsed
}

func (p parser) getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		p.fail(fmt.Errorf("convert %s value %q to bool: %w", key, value, err))
		return fallback
	}
	return parsed
}

// getDecimal reads a money amount; unset is zero, which disables a risk limit.
func (p parser) getDecimal(key string) decimal.Decimal {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return decimal.Zero
	}

	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		p.fail(fmt.Errorf("convert %s value %q to decimal: %w", key, value, err))
		return decimal.Zero
	}
	return parsed
}

// getDuration accepts Go durations ("90s", "5m") or a plain number of seconds.
func (p parser) getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	value = strings.TrimSpace(value)

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		p.fail(fmt.Errorf("convert %s value %q to duration: %w", key, value, err))
		return fallback
	}
	return parsed
}
