package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwtly10/tradebot/internal/account"
	"github.com/jwtly10/tradebot/internal/config"
	"github.com/jwtly10/tradebot/internal/engine"
	"github.com/jwtly10/tradebot/internal/instrument"
	"github.com/jwtly10/tradebot/internal/logging"
	"github.com/jwtly10/tradebot/internal/oanda"
	"github.com/jwtly10/tradebot/internal/paper"
	"github.com/jwtly10/tradebot/internal/strategy"
	"github.com/jwtly10/tradebot/internal/tradingview"
)

func main() {
	envFile := flag.String("env", ".env", "Env file to load before reading the environment")
	showTrades := flag.Bool("s", false, "Show trades")
	flag.Parse()

	if err := run(*envFile, *showTrades); err != nil {
		slog.Error("Trading session failed", "error", err)
		os.Exit(1)
	}
}

func run(envFile string, showTrades bool) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		logging.Setup("")
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := oanda.NewClient(cfg.Oanda.AccountID, cfg.Oanda.APIKey, cfg.Oanda.URL)
	client.CandleCount = cfg.BarCount

	policy, err := strategy.New(cfg.Strategy, cfg.StrategyParams)
	if err != nil {
		return err
	}

	var executor account.Executor = client
	if cfg.Paper {
		slog.Info("Paper trading enabled, orders are simulated at the live quote")
		executor = paper.NewExecutor(client)
	}

	opts := []engine.Option{
		engine.WithAuthenticator(client),
		engine.WithLedgerSink(account.NewJournal(slog.Default())),
	}
	if cfg.Mode == config.ModeOptions {
		contracts, err := instrument.LoadChain(cfg.OptionChainPath)
		if err != nil {
			return err
		}
		slog.Info("Loaded option chain", "path", cfg.OptionChainPath, "contracts", len(contracts))
		opts = append(opts, engine.WithResolver(instrument.NewATMResolver(cfg.Instrument, client, contracts, cfg.StrikeStep)))
	}

	eng := engine.NewEngine(cfg.Engine(), client, executor, policy, opts...)

	results, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	results.Calculate().Print()
	if showTrades {
		results.PrintTrades()
	}
	tradingview.DumpPineScript(results.Trades)
	return nil
}
