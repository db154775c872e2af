package models

import "time"

// TradeSide is the direction of a trade request.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// Position is one account's holdings. AvgCost is the quantity-weighted mean
// purchase price over all buys since the asset balance last crossed zero;
// sells never move it (except the dust reset). UnsettledPL is realized P&L
// from sells that has not yet been credited to cash by the settler.
type Position struct {
	Cash        float64 `json:"cash"`
	Asset       float64 `json:"asset"`
	AvgCost     float64 `json:"avg_cost"`
	UnsettledPL float64 `json:"unsettled_pl"`
}

// PositionSnapshot is a read-only view handed to the price engine for the
// dampening term. Staleness by one tick is acceptable, so it is a plain copy.
type PositionSnapshot struct {
	Asset   float64
	AvgCost float64
}

// Snapshot copies the fields the price engine is allowed to read.
func (p Position) Snapshot() PositionSnapshot {
	return PositionSnapshot{Asset: p.Asset, AvgCost: p.AvgCost}
}

// TradeResult records one executed trade. RealizedPL is zero for buys; for
// sells it is the P&L against avg cost, pending deferred settlement.
type TradeResult struct {
	Side       TradeSide `json:"side"`
	USDAmount  float64   `json:"usd_amount"`
	Price      float64   `json:"price"`
	AssetDelta float64   `json:"asset_delta"`
	RealizedPL float64   `json:"realized_pl"`
	At         time.Time `json:"at"`
}

// AccountRecord is the persisted shape of an account. Partial saves merge
// into this record in the store.
type AccountRecord struct {
	Cash      float64   `json:"cash"`
	Asset     float64   `json:"asset"`
	AvgCost   float64   `json:"avg_cost"`
	LastPrice float64   `json:"last_price"`
	UpdatedAt time.Time `json:"updated_at"`
}
