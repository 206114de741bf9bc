package bugsnag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultDelivered = "delivered"
	resultFailed    = "failed"
	resultFiltered  = "filtered"
	resultDropped   = "dropped"
)

var metricReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bugsnag",
	Subsystem: "notifier",
	Name:      "reports_total",
	Help:      "Reports handled by the notifier, by result.",
}, []string{"result"})
