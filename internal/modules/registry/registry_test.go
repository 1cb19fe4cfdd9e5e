package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	instruments []models.Instrument
	aliases     map[string]string
	loadErr     error
}

func (f *fakeStore) LoadActiveInstruments(ctx context.Context) ([]models.Instrument, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.instruments, nil
}

func (f *fakeStore) LoadAliases(ctx context.Context) (map[string]string, error) {
	return f.aliases, nil
}

func TestRegistry_DefaultTable(t *testing.T) {
	r := New(&fakeStore{})
	if _, ok := r.GetContract("BTCUSD"); !ok {
		t.Fatal("expected default BTCUSD contract metadata")
	}
}

func TestRegistry_NormalizeSymbol(t *testing.T) {
	r := New(&fakeStore{aliases: map[string]string{"XBTUSD": "BTCUSD"}})
	if err := r.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"btcusd", "BTCUSD"},
		{"BTC:USD", "BTCUSD"},
		{"BTC_USD", "BTCUSD"},
		{"xbtusd", "BTCUSD"},
	}
	for _, tt := range tests {
		if got := r.NormalizeSymbol(tt.in); got != tt.want {
			t.Errorf("NormalizeSymbol(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRegistry_Reload_MergesOverDefaults(t *testing.T) {
	custom := models.Instrument{
		Symbol:  "GOLD",
		QtyStep: decimal.NewFromFloat(0.01),
		MinQty:  decimal.NewFromFloat(0.01),
	}
	r := New(&fakeStore{instruments: []models.Instrument{custom}})

	if err := r.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if _, ok := r.GetContract("GOLD"); !ok {
		t.Fatal("expected GOLD to be merged in after reload")
	}
	if _, ok := r.GetContract("BTCUSD"); !ok {
		t.Fatal("expected default BTCUSD to survive merge")
	}
}

func TestRegistry_Reload_DropsInvalidInstrument(t *testing.T) {
	invalid := models.Instrument{Symbol: "BAD", QtyStep: decimal.Zero, MinQty: decimal.NewFromInt(1)}
	r := New(&fakeStore{instruments: []models.Instrument{invalid}})

	_ = r.Reload(context.Background())
	if _, ok := r.GetContract("BAD"); ok {
		t.Fatal("invalid instrument should have been dropped on reload")
	}
}

func TestRegistry_Reload_KeepsPreviousSnapshotOnError(t *testing.T) {
	store := &fakeStore{}
	r := New(store)

	store.loadErr = errors.New("boom")
	if err := r.Reload(context.Background()); err == nil {
		t.Fatal("expected Reload to surface the store error")
	}
	if _, ok := r.GetContract("BTCUSD"); !ok {
		t.Fatal("previous snapshot should be kept on reload failure")
	}
}

func TestRegistry_AllSymbols(t *testing.T) {
	r := New(&fakeStore{})
	symbols := r.AllSymbols()
	if len(symbols) < 2 {
		t.Fatalf("expected at least the 2 default symbols, got %v", symbols)
	}
}

func TestRegistry_IsWithinTradingHours_UnknownSymbol(t *testing.T) {
	r := New(&fakeStore{})
	if r.IsWithinTradingHours("NOPE", time.Now()) {
		t.Error("unknown symbol should never be within trading hours")
	}
}
