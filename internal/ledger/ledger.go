package ledger

import (
	"math"
	"time"

	"PaperDesk/internal/domain/models"
)

// DustThreshold is the asset balance below which the position counts as
// flat and the average cost resets.
const DustThreshold = 1e-8

// Apply folds one trade intent into a position. All-or-nothing: on any
// rejection the input position is returned unchanged.
//
// Buys move cash into asset at the given price and fold the purchase into
// the quantity-weighted average cost. Sells are specified in USD
// equivalent: proceeds equal the requested amount exactly, and the
// realized P&L against average cost lands in UnsettledPL, not in cash —
// the settler credits it later.
func Apply(pos models.Position, side models.TradeSide, usdAmount, price float64) (models.Position, models.TradeResult, error) {
	if !validAmount(usdAmount) || !validAmount(price) {
		return pos, models.TradeResult{}, models.ErrInvalidAmount
	}

	res := models.TradeResult{
		Side:      side,
		USDAmount: usdAmount,
		Price:     price,
		At:        time.Now(),
	}

	switch side {
	case models.SideBuy:
		if usdAmount > pos.Cash {
			return pos, models.TradeResult{}, models.ErrInsufficientFunds
		}
		bought := usdAmount / price
		pos.AvgCost = (pos.Asset*pos.AvgCost + usdAmount) / (pos.Asset + bought)
		pos.Cash -= usdAmount
		pos.Asset += bought
		res.AssetDelta = bought

	case models.SideSell:
		sold := usdAmount / price
		if sold > pos.Asset {
			return pos, models.TradeResult{}, models.ErrInsufficientAsset
		}
		proceeds := usdAmount
		tradePL := proceeds - sold*pos.AvgCost
		pos.Cash += proceeds
		pos.Asset -= sold
		pos.UnsettledPL += tradePL
		if pos.Asset < DustThreshold {
			pos.AvgCost = 0
		}
		res.AssetDelta = -sold
		res.RealizedPL = tradePL

	default:
		return pos, models.TradeResult{}, models.ErrInvalidAmount
	}

	return pos, res, nil
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
