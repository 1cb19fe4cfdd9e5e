package matching

import (
	"context"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/pkg/db"
)

// PgOrderStore, PgTradeStore and PgAccountStore persist order/trade/
// account rows the way internal/modules/registry.PgStore loads
// instrument rows: a thin query layer over db.TxManager, one
// RunMaster per call.
type PgOrderStore struct{ tx db.TxManager }

func NewPgOrderStore(tx db.TxManager) *PgOrderStore { return &PgOrderStore{tx: tx} }

func (s *PgOrderStore) InsertPending(ctx context.Context, o models.Order) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `
			insert into orders (id, account_id, user_id, symbol, side, quantity, type, limit_price, stop_loss, take_profit, idempotency_key, created_at, status)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,'pending')
			on conflict (id) do nothing`,
			o.ID, o.AccountID, o.UserID, o.Symbol, o.Side, o.Quantity, o.Type, o.LimitPrice, o.StopLoss, o.TakeProfit, o.IdempotencyKey, o.CreatedAt)
		return err
	})
}

func (s *PgOrderStore) InsertFilled(ctx context.Context, o models.Order, filledAt time.Time) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `
			insert into orders (id, account_id, user_id, symbol, side, quantity, type, limit_price, stop_loss, take_profit, idempotency_key, created_at, status, filled_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,'filled',$13)
			on conflict (id) do update set status='filled', filled_at=excluded.filled_at`,
			o.ID, o.AccountID, o.UserID, o.Symbol, o.Side, o.Quantity, o.Type, o.LimitPrice, o.StopLoss, o.TakeProfit, o.IdempotencyKey, o.CreatedAt, filledAt)
		return err
	})
}

func (s *PgOrderStore) MarkRejected(ctx context.Context, orderID string, reason models.ErrorCode) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `update orders set status='rejected', reject_reason=$2 where id=$1`, orderID, reason)
		return err
	})
}

func (s *PgOrderStore) DeletePending(ctx context.Context, orderID string) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `delete from orders where id=$1 and status='pending'`, orderID)
		return err
	})
}

type PgTradeStore struct{ tx db.TxManager }

func NewPgTradeStore(tx db.TxManager) *PgTradeStore { return &PgTradeStore{tx: tx} }

func (s *PgTradeStore) InsertOpen(ctx context.Context, tr models.Trade) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `
			insert into trades (id, account_id, symbol, side, quantity, entry_price, stop_loss, take_profit, time_opened, pnl, order_id, is_open)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,true)
			on conflict (id) do nothing`,
			tr.ID, tr.AccountID, tr.Symbol, tr.Side, tr.Quantity, tr.EntryPrice, tr.StopLoss, tr.TakeProfit, tr.TimeOpened, tr.PnL, tr.OrderID)
		return err
	})
}

func (s *PgTradeStore) UpdateClosed(ctx context.Context, tr models.Trade) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `
			update trades set is_open=false, exit_price=$2, time_closed=$3, exit_reason=$4, pnl=$5
			where id = $1`,
			tr.ID, tr.ExitPrice, tr.TimeClosed, tr.ExitReason, tr.PnL)
		return err
	})
}

type PgAccountStore struct{ tx db.TxManager }

func NewPgAccountStore(tx db.TxManager) *PgAccountStore { return &PgAccountStore{tx: tx} }

func (s *PgAccountStore) ApplyBalancePatch(ctx context.Context, accountID string, patch models.Patch) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctxTx, `
			update accounts set
				current_balance = coalesce($2, current_balance),
				total_profit = coalesce($3, total_profit),
				best_day_profit = coalesce($4, best_day_profit),
				daily_realized_pnl = coalesce($5, daily_realized_pnl),
				session_day = coalesce($6, session_day),
				status = coalesce($7, status),
				blown_reason = coalesce($8, blown_reason),
				peak_balance = coalesce($9, peak_balance),
				trailing_dd_mode = coalesce($10, trailing_dd_mode),
				consistency_flag = coalesce($11, consistency_flag),
				start_of_day_equity = coalesce($12, start_of_day_equity)
			where id = $1`,
			accountID, patch.CurrentBalance, patch.TotalProfit, patch.BestDayProfit, patch.DailyRealizedPnL,
			patch.SessionDay, patch.Status, patch.BlownReason, patch.PeakBalance, patch.TrailingDDMode,
			patch.ConsistencyFlag, patch.StartOfDayEquity)
		return err
	})
}
