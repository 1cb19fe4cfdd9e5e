package models

import "github.com/shopspring/decimal"

// Tick is a single normalized {symbol, price, timestamp} event derived
// from an upstream trade stream.
type Tick struct {
	Symbol string
	Price  decimal.Decimal
	TsMs   int64
}

// DepthLevel is one price/quantity pair of a depth snapshot.
type DepthLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// DepthSnapshot is the upstream order book passthrough — bids
// descending, asks ascending, per spec.md §3.
type DepthSnapshot struct {
	Symbol string
	Bids   []DepthLevel
	Asks   []DepthLevel
	TsMs   int64
}
