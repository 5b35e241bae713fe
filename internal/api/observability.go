package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/Isingizwe12/taskboard/internal/mesh"
)

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	reqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taskboard", Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "path", "status"},
	)
	taskEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taskboard", Name: "task_events_total", Help: "Task change events seen on the bus"},
		[]string{"topic"},
	)
	janitorPurgedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taskboard", Name: "janitor_purged_total", Help: "Expired in-memory entries removed"},
		[]string{"component"},
	)
	circuitOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "taskboard", Name: "circuit_open", Help: "1 while the named circuit breaker rejects calls"},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(reqDuration, reqTotal, taskEventsTotal, janitorPurgedTotal, circuitOpen)
}

// MetricsMiddleware records basic HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		observer := reqDuration.WithLabelValues(c.Request.Method, path, status)
		// attach exemplar with trace_id if present
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			if eo, ok := observer.(prometheus.ExemplarObserver); ok {
				eo.ObserveWithExemplar(dur, prometheus.Labels{"trace_id": sc.TraceID().String()})
			} else {
				observer.Observe(dur)
			}
		} else {
			observer.Observe(dur)
		}
		reqTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// SubscribeTaskMetrics counts task events published on bus.
func SubscribeTaskMetrics(bus mesh.Bus) (unsubscribe func(), err error) {
	var unsubs []func()
	unsubscribe = func() {
		for _, u := range unsubs {
			u()
		}
	}
	for _, topic := range mesh.TaskTopics {
		u, err := bus.Subscribe(topic, func(_ context.Context, e mesh.Event) {
			taskEventsTotal.WithLabelValues(e.Topic).Inc()
		})
		if err != nil {
			unsubscribe()
			return nil, err
		}
		unsubs = append(unsubs, u)
	}
	return unsubscribe, nil
}
