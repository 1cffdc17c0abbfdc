// Package metrics defines the Prometheus metrics of the explorer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the explorer collectors. A nil *Metrics records nothing.
type Metrics struct {
	Renders      *prometheus.CounterVec
	NodesMerged  prometheus.Counter
	EdgesMerged  prometheus.Counter
	RenderErrors prometheus.Counter
	Resets       prometheus.Counter
	Displayed    prometheus.Gauge
	WSClients    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bmmap_renders_total",
				Help: "Render and expand requests by operation and result",
			},
			[]string{"op", "result"},
		),
		NodesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmmap_nodes_merged_total",
			Help: "Nodes added to the display",
		}),
		EdgesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmmap_edges_merged_total",
			Help: "Edges added to the display",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmmap_render_errors_total",
			Help: "Display updates rejected by the visualisation",
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmmap_resets_total",
			Help: "Display resets",
		}),
		Displayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bmmap_displayed_users",
			Help: "Users currently rendered",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bmmap_websocket_clients",
			Help: "Attached websocket clients",
		}),
	}

	reg.MustRegister(
		m.Renders, m.NodesMerged, m.EdgesMerged,
		m.RenderErrors, m.Resets, m.Displayed, m.WSClients,
	)
	return m
}

func (m *Metrics) Render(op, result string) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Merged(nodes, edges int, failed bool, displayed int) {
	if m == nil {
		return
	}
	if failed {
		m.RenderErrors.Inc()
	}
	m.NodesMerged.Add(float64(nodes))
	m.EdgesMerged.Add(float64(edges))
	m.Displayed.Set(float64(displayed))
}

func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.Resets.Inc()
	m.Displayed.Set(0)
}

func (m *Metrics) Clients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}
