package speed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	ClientsConnected  *prometheus.GaugeVec
	SightingsRecorded prometheus.Counter
	TicketsIssued     prometheus.Counter
	TicketsDeferred   prometheus.Counter
	ProtocolErrors    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClientsConnected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "speedd_clients_connected",
			Help: "Number of currently connected clients by role.",
		}, []string{"role"}),
		SightingsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "speedd_sightings_recorded_total",
			Help: "Total number of plate sightings recorded by cameras.",
		}),
		TicketsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "speedd_tickets_issued_total",
			Help: "Total number of tickets delivered to dispatchers.",
		}),
		TicketsDeferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "speedd_tickets_deferred_total",
			Help: "Ticket candidates left pending because no dispatcher was reachable.",
		}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "speedd_protocol_errors_total",
			Help: "Total number of client protocol violations.",
		}),
	}
}
