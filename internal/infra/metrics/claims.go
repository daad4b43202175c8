package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(claimsTotal, adjustmentsTotal) }

var claimsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claims_total",
		Help: "Claim attempts by resolution path and outcome.",
	},
	[]string{"path", "outcome"}, // path: 'token'|'event'; outcome: 'accepted', 'already_claimed', ...
)

var adjustmentsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "ledger_adjustments_total",
		Help: "Manual balance adjustments applied by administrators.",
	},
)

func IncClaim(path, outcome string) {
	claimsTotal.WithLabelValues(path, outcome).Inc()
}

func IncAdjustment() {
	adjustmentsTotal.Inc()
}
