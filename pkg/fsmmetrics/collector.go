package fsmmetrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

const Namespace = "fsmkit"

// Collector counts state changes and callback failures across machines.
// Attach it to machines with Options and register it with a prometheus.Registerer.
type Collector struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	live        *prometheus.Desc
	registry    *statemachine.Registry
}

// New creates a collector. When registry is non-nil the collector also
// reports the number of live machines it holds.
func New(registry *statemachine.Registry) *Collector {
	return &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "state_changes_total",
			Help:      "The number of completed state changes, by machine and reason.",
		}, []string{"machine", "reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "callback_failures_total",
			Help:      "The number of callbacks whose listeners failed, by machine, phase and kind.",
		}, []string{"machine", "phase", "kind"}),
		live: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "machines_live"),
			"The number of machines currently held by the registry.",
			nil, nil,
		),
		registry: registry,
	}
}

// Observe is a statemachine.Listener.
func (c *Collector) Observe(_ context.Context, evt statemachine.StateChangeEvent) {
	c.transitions.WithLabelValues(evt.Machine, evt.Reason.String()).Inc()
}

// ObserveError is a machine error handler. Errors that are not *statemachine.CallbackError
// are counted under the "unknown" phase.
func (c *Collector) ObserveError(err error) {
	if err == nil {
		return
	}
	var cbErr *statemachine.CallbackError
	if !errors.As(err, &cbErr) {
		c.failures.WithLabelValues("", "unknown", "unknown").Inc()
		return
	}
	kind := "state"
	if cbErr.Global {
		kind = "global"
	}
	c.failures.WithLabelValues(cbErr.Machine, cbErr.Phase.String(), kind).Inc()
}

// Options returns the machine options that feed this collector.
func (c *Collector) Options() []statemachine.Option {
	return []statemachine.Option{
		statemachine.WithListener(c.Observe),
		statemachine.WithErrorHandler(c.ObserveError),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.transitions.Describe(ch)
	c.failures.Describe(ch)
	ch <- c.live
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.transitions.Collect(ch)
	c.failures.Collect(ch)
	if c.registry != nil {
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(c.registry.Len()))
	}
}
