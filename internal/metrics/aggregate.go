package metrics

import (
	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
)

// Summary holds the financial metrics derived from one (possibly filtered)
// fill set.
type Summary struct {
	RealizedPnL      decimal.Decimal `json:"realized_pnl"`
	FeesPaid         decimal.Decimal `json:"fees_paid"`
	TradeCount       int             `json:"trade_count"`
	TradingVolume    decimal.Decimal `json:"trading_volume"`
	ReturnPct        decimal.Decimal `json:"return_pct"`
	EffectiveCapital decimal.Decimal `json:"effective_capital"`
}

var hundred = decimal.NewFromInt(100)

// Aggregate sums realized PnL, fees, trade count and notional volume over
// the fill set. A missing closed-PnL contribution counts as zero.
func Aggregate(fills []models.Fill) Summary {
	sum := Summary{
		RealizedPnL:   decimal.Zero,
		FeesPaid:      decimal.Zero,
		TradingVolume: decimal.Zero,
		ReturnPct:     decimal.Zero,
	}
	for _, f := range fills {
		if f.ClosedPnL != nil {
			sum.RealizedPnL = sum.RealizedPnL.Add(*f.ClosedPnL)
		}
		sum.FeesPaid = sum.FeesPaid.Add(f.Fee)
		sum.TradingVolume = sum.TradingVolume.Add(f.Price.Mul(f.Size))
	}
	sum.TradeCount = len(fills)
	return sum
}

// Compute aggregates the fill set and derives the capped return percentage
// against the equity at the range start. The effective capital base is
// min(equity, cap) when a cap is supplied.
//
// A non-positive equity base yields ReturnPct = 0 with no error. This is
// intentional, not a latent bug: the endpoints stay total and always return
// a well-formed number, at the cost of not distinguishing "break-even" from
// "no computable base".
func Compute(fills []models.Fill, equityAtStart decimal.Decimal, capitalCap *decimal.Decimal) Summary {
	sum := Aggregate(fills)
	capital := equityAtStart
	if capitalCap != nil && capitalCap.IsPositive() && capital.GreaterThan(*capitalCap) {
		capital = *capitalCap
	}
	sum.EffectiveCapital = capital
	if capital.IsPositive() {
		sum.ReturnPct = sum.RealizedPnL.Mul(hundred).Div(capital)
	}
	return sum
}
