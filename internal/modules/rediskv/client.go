// Package rediskv wraps the go-redis client behind a small owned type,
// the way pkg/db wraps pgxpool — constructed once in an fx.Provide and
// handed to every component that needs the KV fan-out channel,
// last-price cache, tick history or depth snapshots (SPEC_FULL.md §4.C).
package rediskv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"propfirm-core/internal/modules/config"

	"github.com/redis/go-redis/v9"
)

// Store is the KV store layout of spec.md §6: a latest_prices hash, a
// ticks:{symbol} ring, an orderbook:{symbol} TTL key, pub/sub channels,
// idempotency keys and an audit list.
type Store struct {
	rdb *redis.Client
}

func New(cfg *config.Config) (*Store, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// fall back to a bare address so local dev without a URL still works
		opt = &redis.Options{Addr: cfg.RedisURL}
	}
	return &Store{rdb: redis.NewClient(opt)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.rdb.Close() }

type priceEntry struct {
	Price string `json:"price"`
	TsMs  int64  `json:"ts"`
}

// SetLatestPrice writes latest_prices[symbol] = {price, ts}.
func (s *Store) SetLatestPrice(ctx context.Context, symbol, price string, tsMs int64) error {
	b, err := json.Marshal(priceEntry{Price: price, TsMs: tsMs})
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, "latest_prices", symbol, string(b)).Err()
}

// GetLatestPrice reads back latest_prices[symbol].
func (s *Store) GetLatestPrice(ctx context.Context, symbol string) (price string, tsMs int64, ok bool, err error) {
	v, err := s.rdb.HGet(ctx, "latest_prices", symbol).Result()
	if err == redis.Nil {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	var e priceEntry
	if err := json.Unmarshal([]byte(v), &e); err != nil {
		return "", 0, false, err
	}
	return e.Price, e.TsMs, true, nil
}

// AllLatestPrices reads the whole latest_prices hash, used to build
// the WS welcome snapshot.
func (s *Store) AllLatestPrices(ctx context.Context) (map[string]priceEntry, error) {
	raw, err := s.rdb.HGetAll(ctx, "latest_prices").Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]priceEntry, len(raw))
	for sym, v := range raw {
		var e priceEntry
		if json.Unmarshal([]byte(v), &e) == nil {
			out[sym] = e
		}
	}
	return out, nil
}

// PushTick left-pushes {ts, price} onto ticks:{symbol} and trims to cap.
func (s *Store) PushTick(ctx context.Context, symbol, price string, tsMs int64, cap int64) error {
	b, err := json.Marshal(priceEntry{Price: price, TsMs: tsMs})
	if err != nil {
		return err
	}
	key := fmt.Sprintf("ticks:%s", symbol)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, string(b))
	pipe.LTrim(ctx, key, 0, cap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// TickEntry is one {price, ts} sample off the ticks:{symbol} ring.
type TickEntry struct {
	Price string
	TsMs  int64
}

// GetTicks reads up to limit samples off ticks:{symbol}, newest first,
// used by the gateway to derive candles without a dedicated aggregator.
func (s *Store) GetTicks(ctx context.Context, symbol string, limit int64) ([]TickEntry, error) {
	key := fmt.Sprintf("ticks:%s", symbol)
	raw, err := s.rdb.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]TickEntry, 0, len(raw))
	for _, v := range raw {
		var e priceEntry
		if json.Unmarshal([]byte(v), &e) == nil {
			out = append(out, TickEntry{Price: e.Price, TsMs: e.TsMs})
		}
	}
	return out, nil
}

// SetOrderbook stores orderbook:{symbol} with a 10s TTL.
func (s *Store) SetOrderbook(ctx context.Context, symbol string, payload []byte, ttl time.Duration) error {
	key := fmt.Sprintf("orderbook:%s", symbol)
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

// GetOrderbook reads back orderbook:{symbol}, or ok=false on miss/expiry.
func (s *Store) GetOrderbook(ctx context.Context, symbol string) (payload []byte, ok bool, err error) {
	key := fmt.Sprintf("orderbook:%s", symbol)
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Publish fans a JSON payload out on a pub/sub channel
// (price_ticks, orderbook_{symbol}, trade_events, order_events, prices).
func (s *Store) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.rdb.Publish(ctx, channel, payload).Err()
}

func (s *Store) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, channels...)
}

// ReserveIdempotencyKey sets idem:{key} -> orderID with a 300s TTL if
// absent, atomically. existingOrderID is non-empty when the key was
// already present (duplicate submission within the window).
func (s *Store) ReserveIdempotencyKey(ctx context.Context, key, orderID string) (existingOrderID string, err error) {
	set, err := s.rdb.SetNX(ctx, "idem:"+key, orderID, 300*time.Second).Result()
	if err != nil {
		return "", err
	}
	if set {
		return "", nil
	}
	existing, err := s.rdb.Get(ctx, "idem:"+key).Result()
	if err != nil {
		return "", err
	}
	return existing, nil
}

// AppendAudit left-pushes a JSON audit record onto audit:orders,
// trimmed to 10000.
func (s *Store) AppendAudit(ctx context.Context, payload []byte) error {
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, "audit:orders", payload)
	pipe.LTrim(ctx, "audit:orders", 0, 9999)
	_, err := pipe.Exec(ctx)
	return err
}
