package metrics

import "github.com/prometheus/client_golang/prometheus"

var purchasesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Purchase flow outcomes (confirmed/rejected_depleted/rejected_expired).",
	},
	[]string{"outcome"},
)

func init() { register(purchasesTotal) }

func IncPurchase(outcome string) { purchasesTotal.WithLabelValues(outcome).Inc() }
