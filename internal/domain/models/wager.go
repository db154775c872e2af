package models

import "time"

// WagerMode identifies which wager engine a session belongs to.
type WagerMode string

const (
	WagerAscend WagerMode = "ascend"
	WagerCrash  WagerMode = "crash"
)

// WagerStatus is the state of a wager session's finite state machine.
type WagerStatus int

const (
	WagerIdle WagerStatus = iota
	WagerPendingStart
	WagerRunning
	WagerResolved
	WagerBlasted
	WagerWithdrawn
)

func (s WagerStatus) String() string {
	switch s {
	case WagerPendingStart:
		return "pending_start"
	case WagerRunning:
		return "running"
	case WagerResolved:
		return "resolved"
	case WagerBlasted:
		return "blasted"
	case WagerWithdrawn:
		return "withdrawn"
	default:
		return "idle"
	}
}

// Active reports whether the session holds (or is about to hold) a stake.
func (s WagerStatus) Active() bool {
	return s == WagerPendingStart || s == WagerRunning
}

// WagerDirection is the user's call in the ascending bet.
type WagerDirection string

const (
	DirectionUp   WagerDirection = "up"
	DirectionDown WagerDirection = "down"
)

// AscendSample is one presentation frame of the ascending bet animation.
type AscendSample struct {
	AccountID string  `json:"account_id"`
	Progress  float64 `json:"progress"`
	Altitude  float64 `json:"altitude"`
}

// CrashUpdate is one presentation frame of the escalating crash run.
type CrashUpdate struct {
	AccountID   string  `json:"account_id"`
	GainPercent float64 `json:"gain_percent"`
	Turbo       bool    `json:"turbo"`
}

// WagerOutcome is the terminal report of one wager session.
type WagerOutcome struct {
	AccountID   string    `json:"account_id"`
	Mode        WagerMode `json:"mode"`
	Won         bool      `json:"won"`
	Stake       float64   `json:"stake"`
	Payout      float64   `json:"payout"`
	GainPercent float64   `json:"gain_percent,omitempty"`
	At          time.Time `json:"at"`
}
