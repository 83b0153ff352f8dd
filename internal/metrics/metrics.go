package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg            *prometheus.Registry
	QuantityRules  *prometheus.CounterVec
	RowsPriced     prometheus.Counter
	MissingProduct prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rules := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "porkorder_quantity_rule_total",
		Help: "Quantity texts normalized, by matching rule.",
	}, []string{"rule"})
	rows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "porkorder_rows_priced_total",
		Help: "Order lines priced.",
	})
	missing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "porkorder_missing_product_total",
		Help: "Order lines priced against an unknown product id.",
	})
	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "porkorder_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "status"})

	r.MustRegister(rules, rows, missing, reqs)
	return &Registry{
		reg:            r,
		QuantityRules:  rules,
		RowsPriced:     rows,
		MissingProduct: missing,
		HTTPRequests:   reqs,
	}
}

// ObservePricing records one priced row. Safe on a nil Registry.
func (r *Registry) ObservePricing(rule string, productFound bool) {
	if r == nil {
		return
	}
	r.RowsPriced.Inc()
	r.QuantityRules.WithLabelValues(rule).Inc()
	if !productFound {
		r.MissingProduct.Inc()
	}
}

// ObserveRequest records one HTTP response. Safe on a nil Registry.
func (r *Registry) ObserveRequest(method string, status int) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
