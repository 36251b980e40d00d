package engine

import (
	"time"

	"github.com/jwtly10/tradebot/internal/account"
	"github.com/jwtly10/tradebot/internal/risk"
	"github.com/jwtly10/tradebot/internal/types"
)

type State string

const (
	StateIdle     State = "IDLE"
	StateRunning  State = "RUNNING"
	StateStopping State = "STOPPING"
	StateStopped  State = "STOPPED"
)

type EventKind string

const (
	EventStateChanged    EventKind = "STATE_CHANGED"
	EventRiskStop        EventKind = "RISK_STOP"
	EventSignal          EventKind = "SIGNAL"
	EventPositionOpened  EventKind = "POSITION_OPENED"
	EventPositionClosed  EventKind = "POSITION_CLOSED"
	EventExecutionFailed EventKind = "EXECUTION_FAILED"
	EventDataUnavailable EventKind = "DATA_UNAVAILABLE"
)

// Event describes a transition or decision taken by the engine. Only the
// fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Time      time.Time
	Iteration int
	State     State
	Reason    risk.Reason
	Signal    types.Signal
	Position  account.Position
	Trade     *account.Trade
	Err       error
}

type Observer func(Event)
