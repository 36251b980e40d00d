package engine

import (
	"fmt"
	"time"

	"github.com/jwtly10/tradebot/internal/account"
	"github.com/jwtly10/tradebot/internal/risk"
)

type StopReason string

const (
	StopNone            StopReason = ""
	StopCancelled       StopReason = "CANCELLED"
	StopMaxRuntime      StopReason = "MAX_RUNTIME"
	StopMaxDailyLoss    StopReason = StopReason(risk.MaxDailyLoss)
	StopMaxTradesPerDay StopReason = StopReason(risk.MaxTradesPerDay)
	StopLoss            StopReason = StopReason(risk.StopLoss)
	StopTakeProfit      StopReason = StopReason(risk.TakeProfit)
)

type Results struct {
	Instrument string
	Strategy   string
	StartTime  time.Time
	EndTime    time.Time
	Iterations int
	StopReason StopReason
	Trades     []account.Trade

	stats *Statistics
}

func (r *Results) PrintTrades() {
	fmt.Println("\n=== Trade List ===")
	for i, trade := range r.Trades {
		fmt.Printf("#%d | ", i+1)
		trade.Print()
	}
}
