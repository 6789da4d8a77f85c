package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hfsm"
	"github.com/atlekbai/hfsm/metrics"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, metrics.OutcomeSuccess},
		{"no rule", &hfsm.TransitionError{Kind: hfsm.NoTransition}, metrics.OutcomeNoTransition},
		{"guard", &hfsm.TransitionError{Kind: hfsm.NoTransition, FailedGuard: "g"}, metrics.OutcomeGuardFailed},
		{"callback", &hfsm.TransitionError{Kind: hfsm.OtherError, Err: errors.New("x")}, metrics.OutcomeOtherError},
		{"foreign error", errors.New("x"), metrics.OutcomeOtherError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, metrics.Outcome(tt.err))
		})
	}
}

func TestCollector_ObservesMachine(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg, "match")
	require.NoError(t, err)

	m := hfsm.New[string, string](hfsm.WithObserver(c))
	m.CreateState("leaf").SubstateOf("root")
	m.CreateState("idle").
		Permit("go", "leaf").
		Permit("blocked", "leaf", hfsm.NewGuard("closed", func(string, any) bool { return false }))
	m.SetInitialState("idle")

	_, err = m.Fire("blocked", nil)
	require.Error(t, err)
	_, err = m.Fire("go", nil)
	require.NoError(t, err)
	_, err = m.Fire("unknown", nil)
	require.Error(t, err)

	expected := `
# HELP hfsm_fires_total Total number of fired triggers by outcome
# TYPE hfsm_fires_total counter
hfsm_fires_total{machine="match",outcome="guard_failed",trigger="blocked"} 1
hfsm_fires_total{machine="match",outcome="no_transition",trigger="unknown"} 1
hfsm_fires_total{machine="match",outcome="success",trigger="go"} 1
# HELP hfsm_state_entries_total Total number of states visited by entry walks
# TYPE hfsm_state_entries_total counter
hfsm_state_entries_total{machine="match",target="leaf"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"hfsm_fires_total", "hfsm_state_entries_total"))

	histograms, err := testutil.GatherAndCount(reg, "hfsm_fire_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, histograms)
}

func TestCollector_CountsEntriesOfFailedWalk(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg, "match")
	require.NoError(t, err)

	m := hfsm.New[string, string](hfsm.WithObserver(c))
	m.CreateState("leaf").SubstateOf("root")
	m.CreateState("root").OnEntry(func(string) error { return errors.New("pitch closed") })
	m.CreateState("idle").Permit("go", "leaf")
	m.SetInitialState("idle")

	_, err = m.Fire("go", nil)
	require.Error(t, err)
	assert.Equal(t, "idle", m.CurrentState())

	expected := `
# HELP hfsm_state_entries_total Total number of states visited by entry walks
# TYPE hfsm_state_entries_total counter
hfsm_state_entries_total{machine="match",target="leaf"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "hfsm_state_entries_total"))
}

func TestCollector_ObserveFireDirectly(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg, "direct")
	require.NoError(t, err)

	c.ObserveFire(hfsm.FireEvent{Trigger: 1, Target: "b", Destination: "b", Entered: 3, Duration: time.Millisecond})
	c.ObserveFire(hfsm.FireEvent{Trigger: 1, Err: &hfsm.TransitionError{Kind: hfsm.OtherError}})

	count, err := testutil.GatherAndCount(reg, "hfsm_fires_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewCollector(reg, "match")
	require.NoError(t, err)

	_, err = metrics.NewCollector(reg, "match")
	assert.ErrorContains(t, err, "already registered")

	_, err = metrics.NewCollector(reg, "other")
	assert.NoError(t, err)
}
