package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInstrument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ins     Instrument
		wantErr bool
	}{
		{"valid", Instrument{QtyStep: dec("0.01"), MinQty: dec("0.01")}, false},
		{"minQty multiple of step", Instrument{QtyStep: dec("0.5"), MinQty: dec("1")}, false},
		{"zero step", Instrument{QtyStep: dec("0"), MinQty: dec("1")}, true},
		{"zero minQty", Instrument{QtyStep: dec("1"), MinQty: dec("0")}, true},
		{"minQty not a multiple", Instrument{QtyStep: dec("0.3"), MinQty: dec("1")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ins.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInstrument_MaxLotsFor(t *testing.T) {
	ins := Instrument{MaxLots: map[Tier]decimal.Decimal{TierFunded: dec("10")}}
	if got := ins.MaxLotsFor(TierFunded); !got.Equal(dec("10")) {
		t.Errorf("MaxLotsFor(funded) = %v, want 10", got)
	}
	if got := ins.MaxLotsFor(TierEvaluation); !got.IsZero() {
		t.Errorf("MaxLotsFor(evaluation) = %v, want 0", got)
	}
}

func TestTradingHours_Contains(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name  string
		hours TradingHours
		hour  int
		want  bool
	}{
		{"normal window, inside", TradingHours{StartHour: 9, EndHour: 17, Zone: loc}, 12, true},
		{"normal window, before open", TradingHours{StartHour: 9, EndHour: 17, Zone: loc}, 8, false},
		{"normal window, at close", TradingHours{StartHour: 9, EndHour: 17, Zone: loc}, 17, false},
		{"wrap-around, inside late", TradingHours{StartHour: 22, EndHour: 6, Zone: loc}, 23, true},
		{"wrap-around, inside early", TradingHours{StartHour: 22, EndHour: 6, Zone: loc}, 2, true},
		{"wrap-around, outside", TradingHours{StartHour: 22, EndHour: 6, Zone: loc}, 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 1, 1, tt.hour, 0, 0, 0, time.UTC)
			if got := tt.hours.Contains(now); got != tt.want {
				t.Errorf("Contains(hour=%d) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}
