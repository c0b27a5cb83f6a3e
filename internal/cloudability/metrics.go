package cloudability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records one observation per API request. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the request metrics and registers them with reg when
// reg is not nil
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudability_api_requests_total",
				Help: "Total number of Cloudability API requests by resource and status code",
			},
			[]string{"resource", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudability_api_request_duration_seconds",
				Help:    "Duration of Cloudability API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
	}

	if reg != nil {
		if err := reg.Register(m.requests); err != nil {
			return nil, err
		}
		if err := reg.Register(m.duration); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(resource string, resp *http.Response, err error, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	m.requests.WithLabelValues(resource, code).Inc()
	m.duration.WithLabelValues(resource).Observe(d.Seconds())
}
