package models

import "time"

// Outbound event envelopes published to the event stream after trades,
// settlements and wager resolutions. Keyed by account for per-key ordering.

type TradeEvent struct {
	Type      string      `json:"type"` // "trade"
	AccountID string      `json:"account_id"`
	Trade     TradeResult `json:"trade"`
}

type SettlementEvent struct {
	Type      string    `json:"type"` // "settlement"
	AccountID string    `json:"account_id"`
	Amount    float64   `json:"amount"`
	At        time.Time `json:"at"`
}

type WagerEvent struct {
	Type      string       `json:"type"` // "wager"
	AccountID string       `json:"account_id"`
	Outcome   WagerOutcome `json:"outcome"`
}
