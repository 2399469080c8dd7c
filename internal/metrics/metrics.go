package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SettlementMetrics counts settlement decisions and individual payout
// attempts.
type SettlementMetrics struct {
	Settlements *prometheus.CounterVec
	Payouts     *prometheus.CounterVec
}

func NewSettlementMetrics() *SettlementMetrics {
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "berri",
		Subsystem: "settlement",
		Name:      "decisions_total",
		Help:      "Settlement decisions by outcome.",
	}, []string{"outcome"})
	payouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "berri",
		Subsystem: "settlement",
		Name:      "payouts_total",
		Help:      "Per-seller payout attempts by result.",
	}, []string{"result"})

	prometheus.MustRegister(settlements, payouts)
	return &SettlementMetrics{Settlements: settlements, Payouts: payouts}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
