package risk

import (
	"context"
	"sync"
	"testing"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/registry"
	"propfirm-core/internal/modules/tradestate"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRegistryStore struct{}

func (fakeRegistryStore) LoadActiveInstruments(ctx context.Context) ([]models.Instrument, error) {
	return nil, nil
}
func (fakeRegistryStore) LoadAliases(ctx context.Context) (map[string]string, error) {
	return nil, nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
}

func (f *fakeAuditStore) InsertAuditLog(ctx context.Context, entry models.AuditLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type busPublisher struct{ bus *eventbus.Bus }

func (p busPublisher) Publish(topic string, payload any) error { return p.bus.Publish(topic, payload) }

type riskHarness struct {
	engine       *Engine
	state        *tradestate.State
	audit        *fakeAuditStore
	bus          *eventbus.Bus
	closedTrades []closedCall
	mu           sync.Mutex
}

type closedCall struct {
	trade  models.Trade
	price  decimal.Decimal
	reason models.ExitReason
}

func newRiskHarness() *riskHarness {
	bus := eventbus.New()
	state := tradestate.New(busPublisher{bus})
	reg := registry.New(fakeRegistryStore{})
	audit := &fakeAuditStore{}

	h := &riskHarness{state: state, audit: audit, bus: bus}
	closeFn := func(ctx context.Context, trade models.Trade, closePrice decimal.Decimal, reason models.ExitReason) {
		h.mu.Lock()
		h.closedTrades = append(h.closedTrades, closedCall{trade, closePrice, reason})
		h.mu.Unlock()
		state.RemoveOpenTrade(trade.ID, trade)
	}
	h.engine = New(state, reg, bus, audit, closeFn)
	return h
}

func TestPreTradeRiskCheck_AccountNotFound(t *testing.T) {
	h := newRiskHarness()
	res := h.engine.PreTradeRiskCheck(context.Background(), "missing", "BTCUSD", decimal.NewFromInt(1))
	require.False(t, res.OK)
	require.Equal(t, models.ErrAccountNotFound, res.Code)
}

func TestPreTradeRiskCheck_InactiveAccount(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{ID: "a1", Status: models.AccountBlown})
	res := h.engine.PreTradeRiskCheck(context.Background(), "a1", "BTCUSD", decimal.NewFromInt(1))
	require.False(t, res.OK)
	require.Equal(t, models.ErrAccountInactive, res.Code)
}

func TestPreTradeRiskCheck_UnknownSymbol(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{ID: "a1", Status: models.AccountActive})
	res := h.engine.PreTradeRiskCheck(context.Background(), "a1", "DOGEUSD", decimal.NewFromInt(1))
	require.False(t, res.OK)
	require.Equal(t, models.ErrSymbolNotSupported, res.Code)
}

func TestPreTradeRiskCheck_MaxLotSize(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{ID: "a1", Status: models.AccountActive, Tier: models.TierEvaluation})
	res := h.engine.PreTradeRiskCheck(context.Background(), "a1", "BTCUSD", decimal.NewFromInt(999))
	require.False(t, res.OK)
	require.Equal(t, models.ErrMaxLotSize, res.Code)
}

func TestPreTradeRiskCheck_DailyLossLimit(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive, Tier: models.TierEvaluation,
		DailyLossLimit: decimal.NewFromInt(100), DailyRealizedPnL: decimal.NewFromInt(-150),
	})
	res := h.engine.PreTradeRiskCheck(context.Background(), "a1", "BTCUSD", decimal.NewFromFloat(0.01))
	require.False(t, res.OK)
	require.Equal(t, models.ErrDailyLossLimit, res.Code)
}

func TestPreTradeRiskCheck_OK(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{ID: "a1", Status: models.AccountActive, Tier: models.TierEvaluation})
	res := h.engine.PreTradeRiskCheck(context.Background(), "a1", "BTCUSD", decimal.NewFromFloat(0.01))
	require.True(t, res.OK)
}

func TestEvaluateImmediateRisk_MaxLossBreached(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive,
		StartBalance: decimal.NewFromInt(10000), MaxLoss: decimal.NewFromInt(1000),
	})
	res := h.engine.EvaluateImmediateRisk(context.Background(), "a1", decimal.NewFromInt(9000))
	require.False(t, res.OK)
	require.Equal(t, models.ErrMaxLoss, res.Code)
}

func TestEvaluateImmediateRisk_TrailingDrawdownBreached(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive, TrailingDDMode: models.TrailingLive,
		StartBalance: decimal.NewFromInt(10000), TrailDrawdown: decimal.NewFromInt(500),
	})
	res := h.engine.EvaluateImmediateRisk(context.Background(), "a1", decimal.NewFromInt(9400))
	require.False(t, res.OK)
	require.Equal(t, models.ErrTrailingDrawdown, res.Code)
}

func TestEvaluateImmediateRisk_OK(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{ID: "a1", Status: models.AccountActive, StartBalance: decimal.NewFromInt(10000)})
	res := h.engine.EvaluateImmediateRisk(context.Background(), "a1", decimal.NewFromInt(9900))
	require.True(t, res.OK)
}

func TestEvaluateOpenPositions_LiquidatesOnMaxLoss(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive,
		StartBalance: decimal.NewFromInt(10000), CurrentBalance: decimal.NewFromInt(8000),
		MaxLoss: decimal.NewFromInt(1000),
	})
	h.state.AddOpenTrade(models.Trade{ID: "t1", AccountID: "a1", Symbol: "BTCUSD", Side: models.SideBuy, EntryPrice: decimal.NewFromInt(100)})

	h.engine.EvaluateOpenPositions(context.Background(), "BTCUSD", decimal.NewFromInt(95))

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.closedTrades) != 1 {
		t.Fatalf("expected 1 liquidation close, got %d", len(h.closedTrades))
	}
	if h.closedTrades[0].reason != models.ExitMaxLoss {
		t.Errorf("close reason = %s, want ExitMaxLoss", h.closedTrades[0].reason)
	}

	acct, _ := h.state.GetAccount("a1")
	if acct.Status != models.AccountBlown {
		t.Errorf("account status = %s, want blown", acct.Status)
	}
	if acct.BlownReason != models.ErrMaxLoss {
		t.Errorf("blown reason = %s, want ErrMaxLoss", acct.BlownReason)
	}
}

func TestEvaluateOpenPositions_SkipsInactiveAccounts(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{ID: "a1", Status: models.AccountPaused})
	h.state.AddOpenTrade(models.Trade{ID: "t1", AccountID: "a1", Symbol: "BTCUSD", Side: models.SideBuy, EntryPrice: decimal.NewFromInt(100)})

	h.engine.EvaluateOpenPositions(context.Background(), "BTCUSD", decimal.NewFromInt(1))

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.closedTrades) != 0 {
		t.Fatalf("expected no liquidation for a paused account, got %d", len(h.closedTrades))
	}
}

func TestEvaluateOpenPositions_AdvancesPeakForLiveAccounts(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive, TrailingDDMode: models.TrailingLive,
		StartBalance: decimal.NewFromInt(10000), CurrentBalance: decimal.NewFromInt(11000), PeakBalance: decimal.NewFromInt(10000),
	})
	h.state.AddOpenTrade(models.Trade{ID: "t1", AccountID: "a1", Symbol: "BTCUSD", Side: models.SideBuy, EntryPrice: decimal.NewFromInt(100)})

	h.engine.EvaluateOpenPositions(context.Background(), "BTCUSD", decimal.NewFromInt(100))

	acct, _ := h.state.GetAccount("a1")
	if !acct.PeakBalance.Equal(decimal.NewFromInt(11000)) {
		t.Errorf("PeakBalance = %v, want 11000", acct.PeakBalance)
	}
}

func TestEvaluateOpenPositions_FlagsConsistencyAtHalfTarget(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive,
		ProfitTarget: decimal.NewFromInt(1000), BestDayProfit: decimal.NewFromInt(600),
	})
	h.state.AddOpenTrade(models.Trade{ID: "t1", AccountID: "a1", Symbol: "BTCUSD", Side: models.SideBuy, EntryPrice: decimal.NewFromInt(100)})

	h.engine.EvaluateOpenPositions(context.Background(), "BTCUSD", decimal.NewFromInt(100))

	acct, _ := h.state.GetAccount("a1")
	if !acct.ConsistencyFlag {
		t.Error("expected ConsistencyFlag to be set once best-day profit exceeds half the target")
	}
}

func TestEvaluateOpenPositions_PassesOnProfitTarget(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive,
		ProfitTarget: decimal.NewFromInt(1000), TotalProfit: decimal.NewFromInt(1000),
	})
	h.state.AddOpenTrade(models.Trade{ID: "t1", AccountID: "a1", Symbol: "BTCUSD", Side: models.SideBuy, EntryPrice: decimal.NewFromInt(100)})

	h.engine.EvaluateOpenPositions(context.Background(), "BTCUSD", decimal.NewFromInt(100))

	acct, _ := h.state.GetAccount("a1")
	if acct.Status != models.AccountPassed {
		t.Errorf("status = %s, want passed", acct.Status)
	}
	if acct.TrailingDDMode != models.TrailingFrozen {
		t.Errorf("TrailingDDMode = %s, want frozen", acct.TrailingDDMode)
	}
}

func TestDailyReset_ResetsSessionCounters(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{
		ID: "a1", Status: models.AccountActive, CurrentBalance: decimal.NewFromInt(9500),
		DailyRealizedPnL: decimal.NewFromInt(-500),
	})

	h.engine.DailyReset(context.Background(), time.Now(), func(symbol string) (decimal.Decimal, bool) { return decimal.Zero, false })

	acct, _ := h.state.GetAccount("a1")
	if !acct.DailyRealizedPnL.IsZero() {
		t.Errorf("DailyRealizedPnL = %v, want 0 after reset", acct.DailyRealizedPnL)
	}
	if !acct.StartOfDayEquity.Equal(decimal.NewFromInt(9500)) {
		t.Errorf("StartOfDayEquity = %v, want 9500", acct.StartOfDayEquity)
	}
}

func TestDailyReset_ForceClosesFlaggedAccounts(t *testing.T) {
	h := newRiskHarness()
	h.state.UpsertAccount(models.Account{ID: "a1", Status: models.AccountActive, ForceCloseOnReset: true, CurrentBalance: decimal.NewFromInt(10000)})
	h.state.AddOpenTrade(models.Trade{ID: "t1", AccountID: "a1", Symbol: "BTCUSD", EntryPrice: decimal.NewFromInt(100)})

	h.engine.DailyReset(context.Background(), time.Now(), func(symbol string) (decimal.Decimal, bool) { return decimal.NewFromInt(105), true })

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.closedTrades) != 1 || h.closedTrades[0].reason != models.ExitDailyReset {
		t.Fatalf("expected 1 daily-reset close, got %v", h.closedTrades)
	}
}
