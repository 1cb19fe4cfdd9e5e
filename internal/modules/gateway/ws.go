package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS authenticates the static API key (sec-websocket-protocol
// header or ?key=/?token= query param per spec.md §6), upgrades the
// connection, sends the welcome and sync_state snapshots, then hands
// the connection off to the broadcaster's fan-out/heartbeat loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.env != "dev" && s.apiKey != "" {
		key := r.URL.Query().Get("key")
		if key == "" {
			key = r.URL.Query().Get("token")
		}
		if key == "" {
			key = r.Header.Get("Sec-WebSocket-Protocol")
		}
		if key != s.apiKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.sendWelcome(r.Context(), conn)
	WSClients.Inc()
	defer WSClients.Dec()

	s.broad.Serve(r.Context(), conn)
}

func (s *Server) sendWelcome(ctx context.Context, conn *websocket.Conn) {
	prices := make(map[string]map[string]any)
	if all, err := s.kv.AllLatestPrices(ctx); err == nil {
		for symbol, e := range all {
			prices[symbol] = map[string]any{"price": e.Price, "ts": e.TsMs}
		}
	}

	orderbooks := make(map[string]json.RawMessage)
	for symbol := range prices {
		if payload, ok, err := s.kv.GetOrderbook(ctx, symbol); err == nil && ok {
			orderbooks[symbol] = payload
		}
	}

	welcome := map[string]any{
		"type":       "welcome",
		"prices":     prices,
		"orderbooks": orderbooks,
	}
	_ = conn.WriteJSON(welcome)

	sync := map[string]any{
		"type":          "sync_state",
		"accounts":      s.state.GetAccounts(),
		"pendingOrders": s.state.GetPendingOrders(),
		"openTrades":    s.state.GetOpenTrades(),
	}
	_ = conn.WriteJSON(sync)
}
