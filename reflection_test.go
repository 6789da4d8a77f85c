package hfsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hfsm"
)

func announceKickoff(string) error { return nil }

func pickPitch(any) (string, error) { return "live", nil }

func TestInfo(t *testing.T) {
	m := hfsm.New[string, string]()
	m.CreateStates("idle", "kickoff", "live")
	m.CreateState("idle_full").SubstateOf("idle")
	node(m, "idle").
		Permit("start", "kickoff", hfsm.NewGuard[string]("enough-players", nil)).
		Permit("route", "live").
		PermitDynamic("route", pickPitch)
	node(m, "kickoff").
		OnEntry(announceKickoff).
		OnEntryFrom("start", func(any, string) error { return nil })
	m.SetInitialState("idle_full")

	info := m.Info()
	assert.Equal(t, "string", info.StateType)
	assert.Equal(t, "string", info.TriggerType)
	require.NotNil(t, info.Current)
	assert.Equal(t, "idle_full", info.Current.Name())

	names := make([]string, len(info.States))
	for i, s := range info.States {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"idle", "idle_full", "kickoff", "live"}, names)

	idleInfo := info.States[0]
	assert.Nil(t, idleInfo.Superstate)
	require.Len(t, idleInfo.Substates, 1)
	assert.Same(t, info.States[1], idleInfo.Substates[0])
	assert.Same(t, idleInfo, info.States[1].Superstate)

	// the static route rule is shadowed by the dynamic one
	require.Len(t, idleInfo.StaticTransitions, 1)
	assert.Equal(t, "start", idleInfo.StaticTransitions[0].Trigger)
	assert.Same(t, info.States[2], idleInfo.StaticTransitions[0].Destination)
	assert.Equal(t, []string{"enough-players"}, idleInfo.StaticTransitions[0].Guards)

	require.Len(t, idleInfo.DynamicTransitions, 1)
	assert.Equal(t, "route", idleInfo.DynamicTransitions[0].Trigger)
	assert.Equal(t, "pickPitch", idleInfo.DynamicTransitions[0].Decider)

	kickoffInfo := info.States[2]
	assert.Equal(t, "announceKickoff", kickoffInfo.EntryAction)
	require.Len(t, kickoffInfo.EntryFrom, 1)
	assert.Equal(t, "start", kickoffInfo.EntryFrom[0].Trigger)
	assert.Equal(t, hfsm.DefaultFunctionDescription, kickoffInfo.EntryFrom[0].Description)

	assert.Empty(t, info.States[3].EntryAction)
}

func TestInfo_NoInitialState(t *testing.T) {
	m := hfsm.New[string, string]()
	m.CreateState("a")
	info := m.Info()
	assert.Nil(t, info.Current)
	assert.Equal(t, "<null>", info.Current.Name())
}
