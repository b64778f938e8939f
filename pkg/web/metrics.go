package web

import (
	"context"
	"time"

	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

type metrics struct {
	chatRequests *prometheus.CounterVec
	modelErrors  prometheus.Counter
	modelLatency prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, store history.Store) *metrics {
	factory := promauto.With(reg)
	m := &metrics{
		chatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ollachat_chat_requests_total",
			Help: "Number of chat messages sent, by front-end.",
		}, []string{"frontend"}),
		modelErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ollachat_model_errors_total",
			Help: "Number of model calls that failed.",
		}),
		modelLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ollachat_model_latency_seconds",
			Help:    "Time spent waiting for model replies.",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ollachat_history_conversations",
		Help: "Number of saved conversations.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		list, err := store.List(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("could not count conversations for metrics")
			return 0
		}
		return float64(len(list))
	})
	return m
}

func (m *metrics) observeChat(frontend string, start time.Time, modelErr error) {
	m.chatRequests.WithLabelValues(frontend).Inc()
	m.modelLatency.Observe(time.Since(start).Seconds())
	if modelErr != nil {
		m.modelErrors.Inc()
	}
}
