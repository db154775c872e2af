package models

import "time"

// Regime is a named market mode. The simulated asset is always in exactly
// one regime; each regime carries its own price band and exit probability
// (see internal/market for the table).
type Regime int

const (
	RegimeLow Regime = iota
	RegimeMid
	RegimeHigh
)

func (r Regime) String() string {
	switch r {
	case RegimeLow:
		return "low"
	case RegimeMid:
		return "mid"
	case RegimeHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Trend is the secondary directional bias. It is only meaningful while the
// regime is mid (consolidation); outside mid it is forced to sideways.
type Trend int

const (
	TrendSideways Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "sideways"
	}
}

// PriceState is the full state of the price engine. It is owned exclusively
// by the engine's tick goroutine; everyone else reads snapshots.
type PriceState struct {
	Price          float64
	Regime         Regime
	Trend          Trend
	TrendTicksLeft int
}

// TickUpdate is the per-tick payload pushed to presentation observers.
type TickUpdate struct {
	AccountID string    `json:"account_id"`
	Price     float64   `json:"price"`
	Regime    string    `json:"regime"`
	Trend     string    `json:"trend"`
	At        time.Time `json:"at"`
}

// TickPoint is the archival shape of one tick.
type TickPoint struct {
	AccountID string    `json:"account_id"`
	Price     float64   `json:"price"`
	Regime    string    `json:"regime"`
	Trend     string    `json:"trend"`
	At        time.Time `json:"at"`
}
