// Package metrics exports hfsm machine activity as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atlekbai/hfsm"
)

// Outcome label values.
const (
	OutcomeSuccess      = "success"
	OutcomeNoTransition = "no_transition"
	OutcomeGuardFailed  = "guard_failed"
	OutcomeOtherError   = "other_error"
)

// Collector implements hfsm.Observer.
type Collector struct {
	fires    *prometheus.CounterVec
	entries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ hfsm.Observer = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg.
// machine is a constant label distinguishing machines sharing a registry.
func NewCollector(reg prometheus.Registerer, machine string) (*Collector, error) {
	constLabels := prometheus.Labels{"machine": machine}
	c := &Collector{
		fires: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "hfsm",
				Name:        "fires_total",
				Help:        "Total number of fired triggers by outcome",
				ConstLabels: constLabels,
			},
			[]string{"trigger", "outcome"},
		),
		entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "hfsm",
				Name:        "state_entries_total",
				Help:        "Total number of states visited by entry walks",
				ConstLabels: constLabels,
			},
			[]string{"target"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   "hfsm",
				Name:        "fire_duration_seconds",
				Help:        "Duration of Fire calls",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"trigger"},
		),
	}

	for _, col := range []prometheus.Collector{c.fires, c.entries, c.duration} {
		if err := reg.Register(col); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				return nil, fmt.Errorf("metrics for machine %q already registered: %w", machine, err)
			}
			return nil, fmt.Errorf("register: %w", err)
		}
	}
	return c, nil
}

// ObserveFire records one Fire call.
func (c *Collector) ObserveFire(event hfsm.FireEvent) {
	trigger := fmt.Sprint(event.Trigger)
	c.fires.WithLabelValues(trigger, Outcome(event.Err)).Inc()
	c.duration.WithLabelValues(trigger).Observe(event.Duration.Seconds())
	if event.Entered > 0 && event.Target != nil {
		c.entries.WithLabelValues(fmt.Sprint(event.Target)).Add(float64(event.Entered))
	}
}

// Outcome maps a Fire error to its outcome label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var te *hfsm.TransitionError
	if !errors.As(err, &te) {
		return OutcomeOtherError
	}
	switch {
	case te.Kind == hfsm.OtherError:
		return OutcomeOtherError
	case te.HasFailedGuard():
		return OutcomeGuardFailed
	default:
		return OutcomeNoTransition
	}
}
