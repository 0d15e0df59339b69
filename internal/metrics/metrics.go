// Package metrics holds the Prometheus collectors for the bot and the admin API.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coursebot"

type Metrics struct {
	Updates      *prometheus.CounterVec
	Payments     *prometheus.CounterVec
	Transitions  *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
}

// New registers the collectors with reg, or with the default registerer when reg is nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Inbound chat updates partitioned by kind.",
		}, []string{"kind"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payment records written partitioned by method and resulting status.",
		}, []string{"method", "status"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "state_transitions_total",
			Help:      "Funnel state transitions partitioned by target state.",
		}, []string{"state"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Admin API requests partitioned by method, route and status code.",
		}, []string{"method", "route", "status"}),
	}
	for _, c := range []*prometheus.CounterVec{m.Updates, m.Payments, m.Transitions, m.HTTPRequests} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) Update(kind string) {
	if m != nil {
		m.Updates.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Payment(method, status string) {
	if m != nil {
		m.Payments.WithLabelValues(method, status).Inc()
	}
}

func (m *Metrics) Transition(state string) {
	if m != nil {
		m.Transitions.WithLabelValues(state).Inc()
	}
}

// Handler returns a gin middleware counting requests by matched route.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
