// Package metrics exports PGD client and outbox activity to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer implements pgd.Observer and internal.DispatchObserver.
type Observer struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	tokenFetches *prometheus.CounterVec
	retries      *prometheus.CounterVec
	dispatched   *prometheus.CounterVec
}

// NewObserver registers the collectors with reg; nil means the default
// registerer, which is what ginprom serves on /metrics.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &Observer{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgd",
			Name:      "client_requests_total",
			Help:      "HTTP requests issued to the PGD API.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pgd",
			Name:      "client_request_duration_seconds",
			Help:      "Latency of HTTP requests to the PGD API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		tokenFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgd",
			Name:      "client_token_fetches_total",
			Help:      "Token requests, by whether they were forced and their outcome.",
		}, []string{"forced", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgd",
			Name:      "client_token_retries_total",
			Help:      "Calls repeated after the API rejected the token.",
		}, []string{"endpoint"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pgd",
			Name:      "outbox_dispatched_total",
			Help:      "Outbox entries dispatched, by kind and outcome.",
		}, []string{"kind", "result"}),
	}

	for _, c := range []prometheus.Collector{o.requests, o.duration, o.tokenFetches, o.retries, o.dispatched} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Observer) ObserveRequest(method string, statusCode int, elapsed time.Duration) {
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	o.requests.WithLabelValues(method, code).Inc()
	o.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (o *Observer) ObserveTokenFetch(forced bool, err error) {
	o.tokenFetches.WithLabelValues(strconv.FormatBool(forced), result(err == nil)).Inc()
}

func (o *Observer) ObserveRetry(endpoint string) {
	o.retries.WithLabelValues(endpoint).Inc()
}

func (o *Observer) ObserveDispatch(kind string, sent bool) {
	o.dispatched.WithLabelValues(kind, result(sent)).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
