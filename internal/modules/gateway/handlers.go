package gateway

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/config"
	"propfirm-core/internal/modules/pricehub"
	"propfirm-core/internal/modules/rediskv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Server holds every dependency the HTTP handlers need. It never
// decides business outcomes itself; every handler is a thin adapter
// from HTTP framing onto the matching engine, trade state and KV.
type Server struct {
	orders OrderGate
	state  StateReader
	kv     *rediskv.Store
	idem   *rediskv.Store
	broad  *pricehub.Broadcaster
	apiKey string
	env    string
}

func NewServer(orders OrderGate, state StateReader, kv *rediskv.Store, broad *pricehub.Broadcaster, cfg *config.Config) *Server {
	return &Server{orders: orders, state: state, kv: kv, idem: kv, broad: broad, apiKey: cfg.FeedAPIKey, env: cfg.Env}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /place-order", s.handlePlaceOrder)
	mux.HandleFunc("GET /prices", s.handlePrices)
	mux.HandleFunc("GET /candles", s.handleCandles)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", metricsHandler())
	return mux
}

type placeOrderRequest struct {
	UserID         string           `json:"user_id"`
	AccountID      string           `json:"account_id"`
	Symbol         string           `json:"symbol"`
	Side           string           `json:"side"`
	Quantity       decimal.Decimal  `json:"quantity"`
	OrderType      string           `json:"order_type"`
	StopLoss       *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit     *decimal.Decimal `json:"take_profit,omitempty"`
	LimitPrice     *decimal.Decimal `json:"limit_price,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrMissingField)
		return
	}
	if req.UserID == "" || req.AccountID == "" || req.Symbol == "" || req.Side == "" || req.OrderType == "" || req.Quantity.IsZero() {
		writeError(w, http.StatusBadRequest, models.ErrMissingField)
		return
	}

	orderID := uuid.NewString()
	if req.IdempotencyKey != "" {
		existing, err := s.idem.ReserveIdempotencyKey(ctx, req.IdempotencyKey, orderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, models.ErrRiskEngineError)
			return
		}
		if existing != "" {
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate", "order_id": existing})
			return
		}
	}

	o := models.Order{
		ID:             orderID,
		AccountID:      req.AccountID,
		UserID:         req.UserID,
		Symbol:         req.Symbol,
		Side:           models.Side(strings.ToLower(req.Side)),
		Quantity:       req.Quantity,
		Type:           models.OrderType(strings.ToLower(req.OrderType)),
		StopLoss:       req.StopLoss,
		TakeProfit:     req.TakeProfit,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
		Status:         models.OrderPending,
	}
	if req.LimitPrice != nil {
		o.LimitPrice = *req.LimitPrice
	}

	res := s.orders.PlaceOrder(ctx, o)
	if !res.OK {
		writeError(w, http.StatusBadRequest, res.Code)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "accepted", "order_id": o.ID})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbolsParam := r.URL.Query().Get("symbols")

	all, err := s.kv.AllLatestPrices(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, models.ErrRiskEngineError)
		return
	}

	out := make(map[string]map[string]any, len(all))
	if symbolsParam == "" {
		for symbol, e := range all {
			out[symbol] = map[string]any{"price": e.Price, "ts": e.TsMs}
		}
	} else {
		for _, symbol := range strings.Split(symbolsParam, ",") {
			symbol = strings.ToUpper(strings.TrimSpace(symbol))
			if e, ok := all[symbol]; ok {
				out[symbol] = map[string]any{"price": e.Price, "ts": e.TsMs}
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1m"
	}
	bucket, ok := intervalDurations[interval]
	if symbol == "" || !ok {
		writeError(w, http.StatusBadRequest, models.ErrMissingField)
		return
	}

	limit := int64(200)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 1000 {
		limit = 1000
	}

	ticks, err := s.kv.GetTicks(ctx, symbol, 5000)
	if err != nil {
		writeError(w, http.StatusInternalServerError, models.ErrRiskEngineError)
		return
	}

	candles := bucketCandles(ticks, bucket, int(limit))
	writeJSON(w, http.StatusOK, candles)
}

func bucketCandles(ticks []rediskv.TickEntry, bucket time.Duration, limit int) []candle {
	buckets := make(map[int64]*candle)
	order := make([]int64, 0)
	for i := len(ticks) - 1; i >= 0; i-- { // oldest first
		t := ticks[i]
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			continue
		}
		bucketTs := (t.TsMs / bucket.Milliseconds()) * bucket.Milliseconds()
		c, ok := buckets[bucketTs]
		if !ok {
			c = &candle{TsMs: bucketTs, Open: price, High: price, Low: price, Close: price}
			buckets[bucketTs] = c
			order = append(order, bucketTs)
			continue
		}
		c.Close = price
		if price.GreaterThan(c.High) {
			c.High = price
		}
		if price.LessThan(c.Low) {
			c.Low = price
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] > order[j] })
	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]candle, 0, len(order))
	for _, ts := range order {
		out = append(out, *buckets[ts])
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	accounts := s.state.GetAccounts()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"accounts": len(accounts),
		"clients":  s.broad.ClientCount(),
		"time":     time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code models.ErrorCode) {
	writeJSON(w, status, map[string]any{"error": string(code)})
}
