package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dingbot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dingbot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// Webhook
	WebhookOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dingbot_webhook_outcomes_total",
			Help: "Webhook requests by terminal outcome",
		},
		[]string{"outcome"}, // replied, help, ignored, unauthorized, invalid, unavailable, error
	)

	// 生成
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dingbot_generations_total",
			Help: "Model generation calls by outcome",
		},
		[]string{"outcome"},
	)

	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dingbot_generation_latency_seconds",
			Help:    "Model generation latency",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"outcome"},
	)

	// 返信
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dingbot_dispatches_total",
			Help: "Reply dispatches by result",
		},
		[]string{"result"}, // ok, error
	)
)

// ObserveGeneration は生成1回分の結果とレイテンシを記録します
func ObserveGeneration(outcome string, elapsed time.Duration) {
	Generations.WithLabelValues(outcome).Inc()
	GenerationLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveDispatch は返信送信1回分の結果を記録します
func ObserveDispatch(err error) {
	if err != nil {
		Dispatches.WithLabelValues("error").Inc()
		return
	}
	Dispatches.WithLabelValues("ok").Inc()
}
