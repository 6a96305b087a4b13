package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tutorbook/internal/domain"
)

// Collector holds the booking core and HTTP metrics.
type Collector struct {
	bookingsCreated   prometheus.Counter
	bookingRejections *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	reviewsCreated    prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorbook_bookings_created_total",
			Help: "Bookings admitted and persisted.",
		}),
		bookingRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorbook_booking_rejections_total",
			Help: "Booking requests rejected, by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorbook_booking_transitions_total",
			Help: "Booking lifecycle transitions, by target status.",
		}, []string{"status"}),
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorbook_reviews_created_total",
			Help: "Reviews attached to completed bookings.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorbook_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutorbook_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.bookingsCreated,
		c.bookingRejections,
		c.transitions,
		c.reviewsCreated,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) BookingCreated() {
	c.bookingsCreated.Inc()
}

func (c *Collector) BookingRejected(reason string) {
	c.bookingRejections.WithLabelValues(reason).Inc()
}

func (c *Collector) BookingTransitioned(to domain.BookingStatus) {
	c.transitions.WithLabelValues(string(to)).Inc()
}

func (c *Collector) ReviewCreated() {
	c.reviewsCreated.Inc()
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
