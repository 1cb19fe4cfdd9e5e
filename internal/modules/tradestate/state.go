// Package tradestate is the Shared Trade State (SPEC_FULL.md §4.B): a
// process-wide, mutex-guarded facade over accounts, open trades and
// pending limit orders. It is a leaf module with no behavioral
// imports (spec.md §9) — matching and risk both import from it, and
// it never imports either back.
//
// Open trades are kept in an id-keyed arena with an account->{trade
// ids} index rather than bidirectional trade<->account pointers, per
// spec.md §9's "avoid cyclic open-trade/account graphs" note.
package tradestate

import (
	"sync"

	"propfirm-core/internal/models"
)

// Publisher is the narrow interface used to fan out mutations, so
// State never depends on the event bus type (only module.go's fx
// wiring imports it) — only the shape it needs, matching the injected-collaborator pattern spec.md
// §9 prescribes for closeTrade.
type Publisher interface {
	Publish(topic string, payload any) error
}

const (
	topicAccountUpdate = "account_update"
	topicTradeOpen     = "trade_open"
	topicTradeClose    = "trade_close"
	topicOrderPending  = "order_pending_state"
)

// State is the in-memory owner of accounts, open trades and pending
// orders during a tick; the relational store is the durable owner.
type State struct {
	mu sync.RWMutex

	accounts map[string]models.Account

	trades        map[string]models.Trade // id -> trade (closed trades stay in the arena for history)
	accountTrades map[string]map[string]struct{}

	pending        map[string]models.Order
	accountPending map[string]map[string]struct{}

	pub Publisher
}

func New(pub Publisher) *State {
	return &State{
		accounts:       make(map[string]models.Account),
		trades:         make(map[string]models.Trade),
		accountTrades:  make(map[string]map[string]struct{}),
		pending:        make(map[string]models.Order),
		accountPending: make(map[string]map[string]struct{}),
		pub:            pub,
	}
}

// --- reads: copy-on-read snapshots, never iterated under a writer ---

func (s *State) GetAccounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out
}

func (s *State) GetAccount(id string) (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *State) GetOpenTrades() []models.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// GetOpenTradesBySymbol is a convenience read used by the matching
// engine's per-tick scans.
func (s *State) GetOpenTradesBySymbol(symbol string) []models.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Trade
	for _, t := range s.trades {
		if t.IsOpen() && t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

func (s *State) GetOpenTradesByAccount(accountID string) []models.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.accountTrades[accountID]
	out := make([]models.Trade, 0, len(ids))
	for id := range ids {
		if t, ok := s.trades[id]; ok && t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

func (s *State) GetPendingOrders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.pending))
	for _, o := range s.pending {
		out = append(out, o)
	}
	return out
}

func (s *State) GetPendingOrdersBySymbol(symbol string) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, o := range s.pending {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out
}

// --- mutators: write under the lock, publish after releasing it ---

func (s *State) UpsertAccount(a models.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
	s.publish(topicAccountUpdate, a)
}

// UpdateAccount applies a partial patch to an existing account.
func (s *State) UpdateAccount(id string, patch models.Patch) (models.Account, bool) {
	s.mu.Lock()
	a, ok := s.accounts[id]
	if !ok {
		s.mu.Unlock()
		return models.Account{}, false
	}
	applyPatch(&a, patch)
	s.accounts[id] = a
	s.mu.Unlock()

	s.publish(topicAccountUpdate, a)
	return a, true
}

func applyPatch(a *models.Account, p models.Patch) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.CurrentBalance != nil {
		a.CurrentBalance = *p.CurrentBalance
	}
	if p.PeakBalance != nil {
		a.PeakBalance = *p.PeakBalance
	}
	if p.TrailingDDMode != nil {
		a.TrailingDDMode = *p.TrailingDDMode
	}
	if p.TotalProfit != nil {
		a.TotalProfit = *p.TotalProfit
	}
	if p.BestDayProfit != nil {
		a.BestDayProfit = *p.BestDayProfit
	}
	if p.DailyRealizedPnL != nil {
		a.DailyRealizedPnL = *p.DailyRealizedPnL
	}
	if p.ConsistencyFlag != nil {
		a.ConsistencyFlag = *p.ConsistencyFlag
	}
	if p.StartOfDayEquity != nil {
		a.StartOfDayEquity = *p.StartOfDayEquity
	}
	if p.SessionDay != nil {
		a.SessionDay = *p.SessionDay
	}
	if p.BlownReason != nil {
		a.BlownReason = *p.BlownReason
	}
}

func (s *State) AddOpenTrade(t models.Trade) {
	s.mu.Lock()
	s.trades[t.ID] = t
	if s.accountTrades[t.AccountID] == nil {
		s.accountTrades[t.AccountID] = make(map[string]struct{})
	}
	s.accountTrades[t.AccountID][t.ID] = struct{}{}
	s.mu.Unlock()
	s.publish(topicTradeOpen, t)
}

// RemoveOpenTrade marks a trade closed in place (keeping it in the
// arena for history) and drops it from the account's open index.
func (s *State) RemoveOpenTrade(id string, closed models.Trade) {
	s.mu.Lock()
	s.trades[id] = closed
	if idx := s.accountTrades[closed.AccountID]; idx != nil {
		delete(idx, id)
	}
	s.mu.Unlock()
	s.publish(topicTradeClose, closed)
}

func (s *State) GetTrade(id string) (models.Trade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[id]
	return t, ok
}

func (s *State) AddPendingOrder(o models.Order) {
	s.mu.Lock()
	s.pending[o.ID] = o
	if s.accountPending[o.AccountID] == nil {
		s.accountPending[o.AccountID] = make(map[string]struct{})
	}
	s.accountPending[o.AccountID][o.ID] = struct{}{}
	s.mu.Unlock()
	s.publish(topicOrderPending, o)
}

func (s *State) RemovePendingOrder(id string) {
	s.mu.Lock()
	o, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
		if idx := s.accountPending[o.AccountID]; idx != nil {
			delete(idx, id)
		}
	}
	s.mu.Unlock()
}

func (s *State) publish(topic string, payload any) {
	if s.pub == nil {
		return
	}
	_ = s.pub.Publish(topic, payload)
}
