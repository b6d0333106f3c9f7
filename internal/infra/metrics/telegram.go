package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	transportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_transport_errors_total",
			Help: "Polling transport errors by class (timeout/revoked/other).",
		},
		[]string{"kind"},
	)

	registeredBots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registered_bots",
			Help: "Bots currently held by the registry.",
		},
	)
)

func init() { register(transportErrors, registeredBots) }

func IncTransportError(kind string) { transportErrors.WithLabelValues(kind).Inc() }
func SetRegisteredBots(n int)       { registeredBots.Set(float64(n)) }
