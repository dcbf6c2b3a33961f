package client

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectkit_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"endpoint", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connectkit_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	tokenRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connectkit_token_refreshes_total",
			Help: "Total number of access token refreshes after a 401",
		},
	)

	itemsListedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connectkit_items_listed_total",
			Help: "Total number of remote items received from listing calls",
		},
	)
)

// observeRequest records one completed API request.
func observeRequest(path string, status int, start time.Time) {
	endpoint := metricEndpoint(path)
	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// metricEndpoint strips the query string so every page of one logical
// endpoint shares a single label value.
func metricEndpoint(path string) string {
	if i := strings.Index(path, "?"); i >= 0 {
		return path[:i]
	}
	return path
}
