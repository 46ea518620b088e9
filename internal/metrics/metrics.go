// Package metrics exposes Prometheus counters and gauges for the simulator.
//
// Exported series:
//   - sim_orders_total{status,side,type} – orders by terminal outcome
//   - sim_fills_total                    – executions
//   - sim_forced_liquidations_total      – margin-call closes
//   - sim_accounts                       – open accounts (gauge)
//   - sim_ws_clients                     – connected websocket clients (gauge)
//
// Registered in init() and served at /metrics in the Prometheus text
// exposition format.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_orders_total",
			Help: "Orders by terminal status, side, and type",
		},
		[]string{"status", "side", "type"},
	)

	fillsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_fills_total",
			Help: "Executions recorded",
		},
	)

	forcedLiquidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_forced_liquidations_total",
			Help: "Forced liquidations triggered by margin calls",
		},
	)

	accounts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_accounts",
			Help: "Open simulation accounts",
		},
	)

	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_ws_clients",
			Help: "Connected websocket clients",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ordersTotal,
		fillsTotal,
		forcedLiquidationsTotal,
		accounts,
		wsClients,
	)
}

// RecordOrder counts a terminal order outcome.
func RecordOrder(status, side, orderType string) {
	ordersTotal.WithLabelValues(status, side, orderType).Inc()
}

// RecordFill counts an execution.
func RecordFill() { fillsTotal.Inc() }

// RecordForcedLiquidation counts a margin-call close.
func RecordForcedLiquidation() { forcedLiquidationsTotal.Inc() }

// SetAccounts updates the open-account gauge.
func SetAccounts(n int) { accounts.Set(float64(n)) }

// WSClientConnected and WSClientDisconnected track websocket fan-out.
func WSClientConnected() { wsClients.Inc() }

// WSClientDisconnected decrements the websocket client gauge.
func WSClientDisconnected() { wsClients.Dec() }
