package pricehub

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"propfirm-core/internal/modules/config"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const pingInterval = 20 * time.Second

// upstreamStream runs one supervised connection per feed URL: dial,
// subscribe implicitly by connecting to a per-symbol URL, read loop
// with a watchdog that force-reconnects on silence, exponential
// backoff capped at cfg.ReconnectBackoffCap. Adapted from the
// teacher's StreamCandlesBatch dial/ping/reconnect shape.
type upstreamStream struct {
	url       string
	cfg       *config.Config
	connected atomic.Bool
	out       chan<- upstreamTick
}

func newUpstreamStream(url string, cfg *config.Config, out chan<- upstreamTick) *upstreamStream {
	return &upstreamStream{url: url, cfg: cfg, out: out}
}

func (s *upstreamStream) run(ctx context.Context) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connectOnce(ctx); err != nil {
			logInfo("upstream %s dial error: %v", s.url, err)
		}
		s.connected.Store(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.cfg.ReconnectBackoffCap {
			backoff = s.cfg.ReconnectBackoffCap
		}
	}
}

func (s *upstreamStream) connectOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.connected.Store(true)

	lastMsg := make(chan struct{}, 1)
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		timer := time.NewTimer(s.cfg.UpstreamWatchdogMS)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-lastMsg:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(s.cfg.UpstreamWatchdogMS)
			case <-timer.C:
				logInfo("watchdog forcing reconnect on %s", s.url)
				_ = conn.Close()
				return
			}
		}
	}()

	pingStop := make(chan struct{})
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingStop:
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()
	defer close(pingStop)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			<-watchdogDone
			return err
		}
		select {
		case lastMsg <- struct{}{}:
		default:
		}

		tick, ok := parseUpstreamTrade(msg)
		if !ok {
			continue
		}
		select {
		case s.out <- tick:
		case <-ctx.Done():
			return nil
		}
	}
}

// tradeFrame is the trade-stream shape from SPEC_FULL.md §6:
// {p: price, T: ts, s: symbol}.
type tradeFrame struct {
	Symbol string `json:"s"`
	Price  string `json:"p"`
	TsMs   int64  `json:"T"`
}

func parseUpstreamTrade(raw []byte) (upstreamTick, bool) {
	var f tradeFrame
	if err := json.Unmarshal(raw, &f); err != nil || f.Price == "" {
		return upstreamTick{}, false
	}
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return upstreamTick{}, false
	}
	ts := f.TsMs
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return upstreamTick{Symbol: f.Symbol, Price: price, TsMs: ts}, true
}
