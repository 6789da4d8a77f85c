package hfsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atlekbai/hfsm"
)

func TestTransitionGuard_Evaluate(t *testing.T) {
	pass := func(string, any) bool { return true }
	fail := func(string, any) bool { return false }

	tests := []struct {
		name    string
		guards  []hfsm.Guard[string]
		wantTag string
		wantOK  bool
	}{
		{"no guards", nil, "", true},
		{"all pass", []hfsm.Guard[string]{hfsm.NewGuard("a", pass), hfsm.NewGuard("b", pass)}, "", true},
		{"first fails", []hfsm.Guard[string]{hfsm.NewGuard("a", fail), hfsm.NewGuard("b", fail)}, "a", false},
		{"second fails", []hfsm.Guard[string]{hfsm.NewGuard("a", pass), hfsm.NewGuard("b", fail)}, "b", false},
		{"nil predicate passes", []hfsm.Guard[string]{{Tag: "open"}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, ok := hfsm.NewTransitionGuard(tt.guards...).Evaluate("go", nil)
			assert.Equal(t, tt.wantTag, tag)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestTransitionGuard_ReceivesTriggerAndArgs(t *testing.T) {
	var gotTrigger string
	var gotArgs any
	g := hfsm.NewTransitionGuard(hfsm.NewGuard("spy", func(trigger string, args any) bool {
		gotTrigger, gotArgs = trigger, args
		return true
	}))

	_, ok := g.Evaluate("kick", 3)
	assert.True(t, ok)
	assert.Equal(t, "kick", gotTrigger)
	assert.Equal(t, 3, gotArgs)
}

func TestTransitionGuard_Tags(t *testing.T) {
	g := hfsm.NewTransitionGuard(
		hfsm.NewGuard[string]("first", nil),
		hfsm.NewGuard[string]("second", nil),
	)
	assert.Equal(t, []string{"first", "second"}, g.Tags())
	assert.False(t, g.IsEmpty())

	empty := hfsm.NewTransitionGuard[string]()
	assert.Nil(t, empty.Tags())
	assert.True(t, empty.IsEmpty())
}

func TestNewTransitionGuard_CopiesGuards(t *testing.T) {
	guards := []hfsm.Guard[string]{hfsm.NewGuard[string]("a", nil)}
	g := hfsm.NewTransitionGuard(guards...)
	guards[0].Tag = "changed"
	assert.Equal(t, []string{"a"}, g.Tags())
}

func TestTypedGuard(t *testing.T) {
	adult := hfsm.TypedGuard("adult", func(_ string, age int) bool { return age >= 18 })

	assert.True(t, adult.IsMet("join", 30))
	assert.False(t, adult.IsMet("join", 12))
	assert.False(t, adult.IsMet("join", "thirty"), "wrong type fails")
	assert.False(t, adult.IsMet("join", nil), "nil is the zero value")
	assert.Equal(t, "adult", adult.Tag)
}
