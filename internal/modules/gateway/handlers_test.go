package gateway

import (
	"testing"
	"time"

	"propfirm-core/internal/modules/rediskv"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBucketCandles_GroupsByInterval(t *testing.T) {
	base := int64(1_700_000_000_000)
	minute := time.Minute.Milliseconds()

	ticks := []rediskv.TickEntry{
		// stored newest-first, matching GetTicks' LRANGE order
		{Price: "105", TsMs: base + minute + 30_000},
		{Price: "103", TsMs: base + minute},
		{Price: "101", TsMs: base + 30_000},
		{Price: "100", TsMs: base},
	}

	candles := bucketCandles(ticks, time.Minute, 10)
	if len(candles) != 2 {
		t.Fatalf("expected 2 one-minute candles, got %d", len(candles))
	}

	// newest bucket first
	latest := candles[0]
	if !latest.Open.Equal(dec("103")) || !latest.Close.Equal(dec("105")) {
		t.Errorf("latest candle = %+v, want open=103 close=105", latest)
	}

	oldest := candles[1]
	if !oldest.Open.Equal(dec("100")) || !oldest.Close.Equal(dec("101")) {
		t.Errorf("oldest candle = %+v, want open=100 close=101", oldest)
	}
	if !oldest.High.Equal(dec("101")) || !oldest.Low.Equal(dec("100")) {
		t.Errorf("oldest candle high/low = %+v, want high=101 low=100", oldest)
	}
}

func TestBucketCandles_RespectsLimit(t *testing.T) {
	ticks := make([]rediskv.TickEntry, 0, 5)
	minute := time.Minute.Milliseconds()
	for i := int64(0); i < 5; i++ {
		ticks = append(ticks, rediskv.TickEntry{Price: "100", TsMs: i * minute})
	}
	candles := bucketCandles(ticks, time.Minute, 2)
	if len(candles) != 2 {
		t.Fatalf("expected limit to cap candle count at 2, got %d", len(candles))
	}
}

func TestBucketCandles_SkipsUnparsablePrices(t *testing.T) {
	ticks := []rediskv.TickEntry{{Price: "not-a-number", TsMs: 0}}
	candles := bucketCandles(ticks, time.Minute, 10)
	if len(candles) != 0 {
		t.Fatalf("expected unparsable ticks to be skipped, got %d candles", len(candles))
	}
}
