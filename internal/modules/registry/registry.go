// Package registry is the Instrument Registry (SPEC_FULL.md §4.A): it
// loads contract metadata, normalizes symbols and aliases, and answers
// trading-hours questions. It is read-many/write-rare, so reloads
// swap the whole table atomically (RCU-style), grounded on the
// "fetch, merge over defaults, keep previous snapshot on failure"
// shape of the teacher's okx_websocket bootstrap/warmup path.
package registry

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/pkg/logger"

	"github.com/shopspring/decimal"
)

const refreshInterval = 10 * time.Minute

// Store loads relational instrument rows; implemented by
// internal/modules/registry's own pgx-backed loader in production and
// by a fake in tests.
type Store interface {
	LoadActiveInstruments(ctx context.Context) ([]models.Instrument, error)
	LoadAliases(ctx context.Context) (map[string]string, error)
}

type snapshot struct {
	instruments map[string]models.Instrument
	aliases     map[string]string
}

// Registry exposes getContract/normalizeSymbol/isWithinTradingHours.
type Registry struct {
	store   Store
	current atomic.Pointer[snapshot]
}

func New(store Store) *Registry {
	r := &Registry{store: store}
	r.current.Store(&snapshot{
		instruments: defaultTable(),
		aliases:     map[string]string{},
	})
	return r
}

// Reload fetches active rows from the store and merges them over the
// built-in default table so unknown-but-listed instruments still have
// fallback metadata. Fails softly: on a store error the previous
// snapshot is kept.
func (r *Registry) Reload(ctx context.Context) error {
	rows, err := r.store.LoadActiveInstruments(ctx)
	if err != nil {
		logger.Info("registry: reload failed, keeping previous snapshot: %v", err)
		return err
	}
	aliases, err := r.store.LoadAliases(ctx)
	if err != nil {
		logger.Info("registry: alias reload failed, keeping previous aliases: %v", err)
		aliases = r.current.Load().aliases
	}

	merged := defaultTable()
	for _, ins := range rows {
		if err := ins.Validate(); err != nil {
			logger.Info("registry: dropping invalid instrument %s: %v", ins.Symbol, err)
			continue
		}
		merged[ins.Symbol] = ins
	}

	r.current.Store(&snapshot{instruments: merged, aliases: aliases})
	return nil
}

// StartAutoRefresh runs Reload on refreshInterval until ctx is done.
func (r *Registry) StartAutoRefresh(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Reload(ctx)
		}
	}
}

// GetContract returns the instrument metadata for a normalized symbol.
func (r *Registry) GetContract(symbol string) (models.Instrument, bool) {
	snap := r.current.Load()
	ins, ok := snap.instruments[r.NormalizeSymbol(symbol)]
	return ins, ok
}

// AllSymbols returns every symbol in the current snapshot, used by
// the price hub broadcaster to attach one bus subscription per
// orderbook topic.
func (r *Registry) AllSymbols() []string {
	snap := r.current.Load()
	out := make([]string, 0, len(snap.instruments))
	for symbol := range snap.instruments {
		out = append(out, symbol)
	}
	return out
}

// NormalizeSymbol is case-insensitive, strips ':' and '_', resolves a
// declared alias, else returns the uppercased input.
func (r *Registry) NormalizeSymbol(s string) string {
	cleaned := strings.ToUpper(s)
	cleaned = strings.ReplaceAll(cleaned, ":", "")
	cleaned = strings.ReplaceAll(cleaned, "_", "")

	snap := r.current.Load()
	if canon, ok := snap.aliases[cleaned]; ok {
		return canon
	}
	return cleaned
}

// IsWithinTradingHours handles wrap-around windows (start > end).
func (r *Registry) IsWithinTradingHours(symbol string, now time.Time) bool {
	ins, ok := r.GetContract(symbol)
	if !ok {
		return false
	}
	return ins.TradingHours.Contains(now)
}

// defaultTable is the built-in fallback metadata merged under whatever
// the store returns, so unknown-but-listed instruments still work.
func defaultTable() map[string]models.Instrument {
	return map[string]models.Instrument{
		"BTCUSD": {
			Symbol:    "BTCUSD",
			QtyStep:   decimal.NewFromFloat(0.01),
			MinQty:    decimal.NewFromFloat(0.01),
			PriceKey:  "BTC-USD",
			Display:   "Bitcoin / US Dollar",
			TickValue: decimal.NewFromInt(1),
			MaxLots: map[models.Tier]decimal.Decimal{
				models.TierEvaluation: decimal.NewFromInt(5),
				models.TierFunded:     decimal.NewFromInt(10),
			},
			TradingHours:   models.TradingHours{StartHour: 0, EndHour: 24, Zone: time.UTC},
			DailyLossLimit: decimal.NewFromInt(1000),
			Commission:     decimal.NewFromInt(50),
			Spread:         decimal.NewFromInt(5),
		},
		"EURUSD": {
			Symbol:    "EURUSD",
			QtyStep:   decimal.NewFromFloat(0.01),
			MinQty:    decimal.NewFromFloat(0.01),
			PriceKey:  "EUR-USD",
			Display:   "Euro / US Dollar",
			TickValue: decimal.NewFromInt(10),
			MaxLots: map[models.Tier]decimal.Decimal{
				models.TierEvaluation: decimal.NewFromInt(5),
				models.TierFunded:     decimal.NewFromInt(10),
			},
			TradingHours:   models.TradingHours{StartHour: 0, EndHour: 22, Zone: time.UTC},
			DailyLossLimit: decimal.NewFromInt(1000),
			Commission:     decimal.NewFromFloat(2.5),
			Spread:         decimal.NewFromFloat(0.0002),
		},
	}
}
