package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountPaused    AccountStatus = "paused"
	AccountPassed    AccountStatus = "passed"
	AccountBlown     AccountStatus = "blown"
	AccountSuspended AccountStatus = "suspended"
)

type TrailingMode string

const (
	TrailingLive   TrailingMode = "LIVE"
	TrailingFrozen TrailingMode = "FROZEN"
)

// Account mirrors the relational accounts row in memory. The shared
// trade state (internal/modules/tradestate) is the in-memory owner
// during a tick; the relational store is the durable owner.
type Account struct {
	ID     string
	Tier   Tier
	Status AccountStatus

	StartBalance   decimal.Decimal
	CurrentBalance decimal.Decimal
	PeakBalance    decimal.Decimal

	MaxLoss         decimal.Decimal
	DailyLossLimit  decimal.Decimal
	MaxIntradayLoss decimal.Decimal
	TrailDrawdown   decimal.Decimal
	TrailingDDMode  TrailingMode

	ProfitTarget     decimal.Decimal
	TotalProfit      decimal.Decimal
	BestDayProfit    decimal.Decimal
	ConsistencyFlag  bool

	// DailyRealizedPnL is the running sum of today's closed-trade PnL,
	// reset to zero whenever SessionDay rolls over. It feeds the daily
	// loss limit rule and BestDayProfit (SPEC_FULL.md §4.E).
	DailyRealizedPnL decimal.Decimal
	StartOfDayEquity decimal.Decimal
	SessionDay       time.Time // truncated to calendar day, in the account's reporting zone

	// ForceCloseOnReset governs whether the scheduled daily-reset job
	// force-closes overnight positions for this account (policy
	// decision left open by the source system; see DESIGN.md).
	ForceCloseOnReset bool

	BlownReason ErrorCode
}

// IsLive reports whether the account still participates in trailing
// drawdown advancement (peak tracking stops once terminal).
func (a Account) IsLive() bool {
	return a.TrailingDDMode == TrailingLive && a.Status != AccountBlown && a.Status != AccountPassed
}

func (a Account) IsTradable() bool {
	switch a.Status {
	case AccountBlown, AccountSuspended, AccountPaused:
		return false
	default:
		return true
	}
}

// Patch describes a partial update to an account, used by
// tradestate.UpdateAccount and mirrored to the relational store.
type Patch struct {
	Status            *AccountStatus
	CurrentBalance    *decimal.Decimal
	PeakBalance       *decimal.Decimal
	TrailingDDMode    *TrailingMode
	TotalProfit       *decimal.Decimal
	BestDayProfit     *decimal.Decimal
	DailyRealizedPnL  *decimal.Decimal
	ConsistencyFlag   *bool
	StartOfDayEquity  *decimal.Decimal
	SessionDay        *time.Time
	BlownReason       *ErrorCode
}

// SessionPnL is the per-account, per-calendar-day realized PnL
// accumulator used by daily limits and the consistency rule.
type SessionPnL struct {
	AccountID string
	Day       time.Time
	Realized  decimal.Decimal
	BestDay   decimal.Decimal
	Total     decimal.Decimal
}
