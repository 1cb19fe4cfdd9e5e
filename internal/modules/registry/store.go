package registry

import (
	"context"
	"encoding/json"

	"propfirm-core/internal/models"
	"propfirm-core/pkg/db"

	"github.com/shopspring/decimal"
)

// PgStore loads instrument rows from the relational store through the
// shared TxManager — never a raw pool, per SPEC_FULL.md §6.
type PgStore struct {
	tx db.TxManager
}

func NewPgStore(tx db.TxManager) *PgStore {
	return &PgStore{tx: tx}
}

type maxLotsRow struct {
	Evaluation string `json:"evaluation"`
	Funded     string `json:"funded"`
}

func (s *PgStore) LoadActiveInstruments(ctx context.Context) ([]models.Instrument, error) {
	var out []models.Instrument
	err := s.tx.RunReplica(ctx, func(ctx context.Context, tx db.Transaction) error {
		rows, err := tx.Query(ctx, `
			SELECT symbol, qty_step, min_qty, price_key, display, tick_value,
			       convert_to_inr, max_lots, start_hour, end_hour, tz,
			       daily_loss_limit, commission, spread,
			       allow_partial_fills, partial_fill_ratio, max_slippage
			FROM instruments WHERE active = true`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				ins                                   models.Instrument
				qtyStep, minQty, tickValue             string
				dailyLossLimit, commission, spread     string
				maxSlippage                            *string
				partialFillRatio                       *string
				startHour, endHour                     int
				tz                                     string
				maxLotsJSON                            []byte
			)
			if err := rows.Scan(
				&ins.Symbol, &qtyStep, &minQty, &ins.PriceKey, &ins.Display, &tickValue,
				&ins.ConvertToINR, &maxLotsJSON, &startHour, &endHour, &tz,
				&dailyLossLimit, &commission, &spread,
				&ins.AllowPartialFills, &partialFillRatio, &maxSlippage,
			); err != nil {
				return err
			}

			ins.QtyStep, _ = decimal.NewFromString(qtyStep)
			ins.MinQty, _ = decimal.NewFromString(minQty)
			ins.TickValue, _ = decimal.NewFromString(tickValue)
			ins.DailyLossLimit, _ = decimal.NewFromString(dailyLossLimit)
			ins.Commission, _ = decimal.NewFromString(commission)
			ins.Spread, _ = decimal.NewFromString(spread)
			if partialFillRatio != nil {
				ins.PartialFillRatio, _ = decimal.NewFromString(*partialFillRatio)
			}
			if maxSlippage != nil {
				ins.MaxSlippage, _ = decimal.NewFromString(*maxSlippage)
			}

			var lots maxLotsRow
			ins.MaxLots = map[models.Tier]decimal.Decimal{}
			if len(maxLotsJSON) > 0 && json.Unmarshal(maxLotsJSON, &lots) == nil {
				if lots.Evaluation != "" {
					ins.MaxLots[models.TierEvaluation], _ = decimal.NewFromString(lots.Evaluation)
				}
				if lots.Funded != "" {
					ins.MaxLots[models.TierFunded], _ = decimal.NewFromString(lots.Funded)
				}
			}

			loc, err := timeLocation(tz)
			if err != nil {
				loc = nil
			}
			ins.TradingHours = models.TradingHours{StartHour: startHour, EndHour: endHour, Zone: loc}

			out = append(out, ins)
		}
		return rows.Err()
	})
	return out, err
}

func (s *PgStore) LoadAliases(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	err := s.tx.RunReplica(ctx, func(ctx context.Context, tx db.Transaction) error {
		rows, err := tx.Query(ctx, `SELECT alias, symbol FROM instrument_aliases`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var alias, symbol string
			if err := rows.Scan(&alias, &symbol); err != nil {
				return err
			}
			out[alias] = symbol
		}
		return rows.Err()
	})
	return out, err
}
