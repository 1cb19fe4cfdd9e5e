package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier gates per-instrument lot-size caps.
type Tier string

const (
	TierEvaluation Tier = "evaluation"
	TierFunded     Tier = "funded"
)

// TradingHours is a wrap-around window (start > end means the window
// crosses midnight) in Zone.
type TradingHours struct {
	StartHour int
	EndHour   int
	Zone      *time.Location
}

// Contains reports whether now falls inside the window.
func (h TradingHours) Contains(now time.Time) bool {
	local := now.In(h.zoneOrUTC())
	hour := local.Hour()
	if h.StartHour <= h.EndHour {
		return hour >= h.StartHour && hour < h.EndHour
	}
	// wrap-around, e.g. 22 -> 6
	return hour >= h.StartHour || hour < h.EndHour
}

func (h TradingHours) zoneOrUTC() *time.Location {
	if h.Zone != nil {
		return h.Zone
	}
	return time.UTC
}

// Instrument is the contract metadata for a tradable symbol, keyed by
// its normalized symbol.
type Instrument struct {
	Symbol       string
	QtyStep      decimal.Decimal
	MinQty       decimal.Decimal
	PriceKey     string
	Display      string
	TickValue    decimal.Decimal
	ConvertToINR bool
	MaxLots      map[Tier]decimal.Decimal
	TradingHours TradingHours

	DailyLossLimit     decimal.Decimal
	Commission         decimal.Decimal
	Spread             decimal.Decimal
	AllowPartialFills  bool
	PartialFillRatio   decimal.Decimal
	MaxSlippage        decimal.Decimal
}

// Validate checks the invariants declared for contract metadata:
// minQty > 0, qtyStep > 0, minQty is an integer multiple of qtyStep.
func (i Instrument) Validate() error {
	if i.QtyStep.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidInstrument
	}
	if i.MinQty.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidInstrument
	}
	mod := i.MinQty.Mod(i.QtyStep)
	if !mod.IsZero() {
		return ErrInvalidInstrument
	}
	return nil
}

// MaxLotsFor returns the lot cap for a tier, or a zero decimal if unset.
func (i Instrument) MaxLotsFor(tier Tier) decimal.Decimal {
	if v, ok := i.MaxLots[tier]; ok {
		return v
	}
	return decimal.Zero
}
