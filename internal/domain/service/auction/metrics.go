package auction

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the auction-side prometheus collectors, served by pkg/metrics.
type Metrics struct {
	bids          *prometheus.CounterVec
	started       prometheus.Counter
	closed        *prometheus.CounterVec
	productFailed prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bids: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Accepted bids by source.",
		}, []string{"source"}),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auctions_started_total",
			Help: "Auctions that reached the active state.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auctions_closed_total",
			Help: "Closed auctions, split by whether a winner existed.",
		}, []string{"sold"}),
		productFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_product_create_failures_total",
			Help: "Failed product creations on the external shop.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.bids, m.started, m.closed, m.productFailed)
	}

	return m
}

func (m *Metrics) BidAccepted(source BidSource) {
	if m == nil {
		return
	}
	m.bids.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) AuctionStarted() {
	if m == nil {
		return
	}
	m.started.Inc()
}

func (m *Metrics) AuctionClosed(sold bool) {
	if m == nil {
		return
	}
	label := "no"
	if sold {
		label = "yes"
	}
	m.closed.WithLabelValues(label).Inc()
}

func (m *Metrics) ProductCreateFailed() {
	if m == nil {
		return
	}
	m.productFailed.Inc()
}
