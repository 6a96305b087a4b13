package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"tutorbook/internal/domain"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.BookingCreated()
	c.BookingCreated()
	c.BookingRejected("double_booking")
	c.BookingTransitioned(domain.BookingCompleted)
	c.ReviewCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.bookingsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.bookingRejections.WithLabelValues("double_booking")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reviewsCreated))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveHTTP(http.MethodPost, "/api/v1/bookings", http.StatusCreated, 20*time.Millisecond)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `tutorbook_http_requests_total{method="POST",route="/api/v1/bookings",status="201"} 1`)
}
