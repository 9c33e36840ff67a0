package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    MonitorLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "hemowatch",
            Subsystem: "monitor",
            Name:      "latency_seconds",
            Help:      "Latency of monitor endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    MonitorErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "hemowatch",
            Subsystem: "monitor",
            Name:      "errors_total",
            Help:      "Errors by monitor endpoint",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(MonitorLatency, MonitorErrors)
    })
}
