package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's prometheus collectors.
type Metrics struct {
	ActiveRooms      prometheus.Gauge
	ConnectedClients prometheus.Gauge
	StrokesCommitted prometheus.Counter
	Undos            prometheus.Counter
	Redos            prometheus.Counter
	DroppedMessages  prometheus.Counter
}

// New registers the collectors with reg. Pass nil to use the default
// registerer; tests pass their own prometheus.NewRegistry to avoid
// duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inkwell_active_rooms",
			Help: "Number of rooms with at least one participant",
		}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inkwell_connected_clients",
			Help: "Number of connected websocket clients",
		}),
		StrokesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_strokes_committed_total",
			Help: "Total strokes committed to room histories",
		}),
		Undos: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_undo_total",
			Help: "Total undo operations applied",
		}),
		Redos: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_redo_total",
			Help: "Total redo operations applied",
		}),
		DroppedMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_messages_dropped_total",
			Help: "Inbound messages dropped as protocol noise",
		}),
	}
}
