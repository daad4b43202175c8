package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(tokensMintedTotal, tokensPurgedTotal) }

var (
	tokensMintedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotating_tokens_minted_total",
			Help: "Rotating attendance tokens issued by the minter.",
		},
	)

	tokensPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotating_tokens_purged_total",
			Help: "Expired rotating tokens removed by the purge pass.",
		},
	)
)

func IncTokensMinted() {
	tokensMintedTotal.Inc()
}

func AddTokensPurged(count int) {
	tokensPurgedTotal.Add(float64(count))
}
