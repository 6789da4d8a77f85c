package hfsm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hfsm"
)

const (
	idle        = "idle"
	idleFull    = "idle_full"
	idleNotFull = "idle_not_full"
	kickoff     = "kickoff"
	live        = "live"
	extraTime   = "extra_time"

	playerJoinRequest = "playerJoinRequest"
	start             = "start"
	overtime          = "overtime"
)

// match is the football lobby used across tests.
type match struct {
	m          *hfsm.Machine[string, string]
	players    int
	maxPlayers int

	// calls records entry callbacks as "state:kind".
	calls []string
}

func newMatch(players, maxPlayers int, opts ...hfsm.Option) *match {
	f := &match{players: players, maxPlayers: maxPlayers}
	m := hfsm.New[string, string](opts...)
	m.CreateStates(idle, idleFull, idleNotFull, kickoff, live, extraTime)

	notBanned := hfsm.TypedGuard("not-banned", func(_ string, name string) bool {
		return name != "banned"
	})

	node(m, idle).
		PermitDynamic(playerJoinRequest, func(any) (string, error) {
			if f.players+1 < f.maxPlayers {
				return idleNotFull, nil
			}
			return idleFull, nil
		}).
		Permit(start, live).
		OnEntryFrom(playerJoinRequest, func(_ any, previous string) error {
			f.calls = append(f.calls, idle+":join")
			if previous != idleFull {
				f.players++
			}
			return nil
		})
	node(m, idleFull).SubstateOf(idle).
		Permit(playerJoinRequest, idleFull, notBanned)
	node(m, idleNotFull).SubstateOf(idle)
	node(m, kickoff).Permit(start, live)
	node(m, live).
		Permit(overtime, extraTime).
		OnEntry(func(string) error {
			f.calls = append(f.calls, live+":common")
			return nil
		}).
		OnEntryFrom(start, func(any, string) error {
			f.calls = append(f.calls, live+":start")
			return nil
		})
	node(m, extraTime).SubstateOf(live)

	f.m = m
	return f
}

func node(m *hfsm.Machine[string, string], tag string) *hfsm.StateNode[string, string] {
	n, ok := m.State(tag)
	if !ok {
		panic("unknown state " + tag)
	}
	return n
}

func requireTransitionError(t *testing.T, err error) *hfsm.TransitionError {
	t.Helper()
	require.Error(t, err)
	var te *hfsm.TransitionError
	require.ErrorAs(t, err, &te)
	return te
}

// recoverPanic runs fn and returns the value it panicked with.
func recoverPanic(fn func()) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	fn()
	return nil
}

func requireConfigPanic(t *testing.T, fn func()) *hfsm.ConfigurationError {
	t.Helper()
	r := recoverPanic(fn)
	require.NotNil(t, r, "expected a panic")
	ce, ok := r.(*hfsm.ConfigurationError)
	require.Truef(t, ok, "expected *ConfigurationError, got %T", r)
	return ce
}
