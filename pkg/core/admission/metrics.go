package admission

import "github.com/prometheus/client_golang/prometheus"

// metrics are updated from both paths: observeSubmitted from CreateJob, and
// observeFinished from the completion path or, for a ticket with no eligible
// transaction, from CreateJob. The prometheus collectors are safe for
// concurrent use.
type metrics struct {
	ticketsSubmitted prometheus.Counter
	ticketsProcessed prometheus.Counter
	acceptedTotal    prometheus.Counter
	rejectedTotal    *prometheus.CounterVec
	dedupSize        prometheus.GaugeFunc
}

func newMetrics(registerer prometheus.Registerer, dedupSizeFn func() float64) *metrics {
	m := &metrics{
		ticketsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Subsystem: "admission",
			Name:      "tickets_submitted_total",
			Help:      "Tickets created via CreateJob.",
		}),
		ticketsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Subsystem: "admission",
			Name:      "tickets_processed_total",
			Help:      "Tickets that reached the processed state.",
		}),
		acceptedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Subsystem: "admission",
			Name:      "transactions_accepted_total",
			Help:      "Transactions admitted into the mempool.",
		}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mempool",
			Subsystem: "admission",
			Name:      "transactions_rejected_total",
			Help:      "Transactions rejected, labelled by error kind.",
		}, []string{"kind"}),
	}

	m.dedupSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "mempool",
		Subsystem: "admission",
		Name:      "dedup_cache_size",
		Help:      "Transaction ids currently referenced by an in-flight ticket.",
	}, dedupSizeFn)

	if registerer != nil {
		registerer.MustRegister(m.ticketsSubmitted, m.ticketsProcessed, m.acceptedTotal, m.rejectedTotal, m.dedupSize)
	}

	return m
}

func (m *metrics) observeSubmitted() {
	m.ticketsSubmitted.Inc()
}

func (m *metrics) observeFinished(result FinishedJobResult) {
	m.ticketsProcessed.Inc()
	m.acceptedTotal.Add(float64(len(result.Accept)))

	for _, rec := range result.Errors {
		m.rejectedTotal.WithLabelValues(string(rec.Kind)).Inc()
	}
}
