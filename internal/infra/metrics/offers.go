package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	offersPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offers_published_total",
			Help: "Offers published per channel, by outcome (ok/error).",
		},
		[]string{"outcome"},
	)

	invoicesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invoices_sent_total",
			Help: "Invoices issued in response to /start commands.",
		},
	)
)

func init() { register(offersPublished, invoicesSent) }

func IncOfferPublished(outcome string) { offersPublished.WithLabelValues(outcome).Inc() }
func IncInvoiceSent()                  { invoicesSent.Inc() }
