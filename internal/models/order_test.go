package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrder_FillEligible(t *testing.T) {
	limit := decimal.NewFromInt(100)

	tests := []struct {
		name  string
		side  Side
		price decimal.Decimal
		want  bool
	}{
		{"buy at limit", SideBuy, limit, true},
		{"buy below limit", SideBuy, decimal.NewFromInt(99), true},
		{"buy above limit", SideBuy, decimal.NewFromInt(101), false},
		{"sell at limit", SideSell, limit, true},
		{"sell above limit", SideSell, decimal.NewFromInt(101), true},
		{"sell below limit", SideSell, decimal.NewFromInt(99), false},
		{"unknown side", Side("short"), limit, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Side: tt.side, LimitPrice: limit}
			if got := o.FillEligible(tt.price); got != tt.want {
				t.Errorf("FillEligible(%v) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}
