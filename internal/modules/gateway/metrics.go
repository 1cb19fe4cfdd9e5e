package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric registration mirrors vegaprotocol-vega's
// internal/metrics/prometheus.go instrument-registration pattern,
// simplified: this domain needs a fixed handful of counters/gauges,
// not a generic vector factory.
var (
	OrdersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "propfirm_core",
		Name:      "orders_placed_total",
		Help:      "Orders filled by the matching engine, by symbol and side.",
	}, []string{"symbol", "side"})

	OrdersRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "propfirm_core",
		Name:      "orders_rejected_total",
		Help:      "Orders rejected before or during fill, by error code.",
	}, []string{"code"})

	TradesClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "propfirm_core",
		Name:      "trades_closed_total",
		Help:      "Trades closed, by exit reason.",
	}, []string{"reason"})

	AccountsBlown = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "propfirm_core",
		Name:      "accounts_blown_total",
		Help:      "Accounts moved to blown status, by breach rule.",
	}, []string{"rule"})

	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "propfirm_core",
		Name:      "ws_clients",
		Help:      "Connected downstream WebSocket clients.",
	})

	TickLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "propfirm_core",
		Name:      "tick_process_seconds",
		Help:      "processTick wall-clock duration per symbol.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"symbol"})
)

func init() {
	prometheus.MustRegister(OrdersPlaced, OrdersRejected, TradesClosed, AccountsBlown, WSClients, TickLatency)
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
