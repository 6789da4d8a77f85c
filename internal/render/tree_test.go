package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/hfsm"
)

func TestTree_Plain(t *testing.T) {
	m := hfsm.New[string, string]()
	m.CreateState("idle_full").SubstateOf("idle")
	m.CreateState("extra_time").SubstateOf("live")
	m.CreateState("kickoff")

	var buf bytes.Buffer
	err := Tree(&buf, m.Roots(), m.ExportLinkForest(), Options{Active: "idle_full"})
	require.NoError(t, err)

	want := "idle\n" +
		"  └─ idle_full *\n" +
		"live\n" +
		"  └─ extra_time\n" +
		"kickoff\n"
	assert.Equal(t, want, buf.String())
}

func TestTree_SkipsUnknownRoots(t *testing.T) {
	var buf bytes.Buffer
	err := Tree(&buf, []string{"ghost"}, map[string]hfsm.LinkTree[string]{}, Options{})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestTree_Color(t *testing.T) {
	forest := map[string]hfsm.LinkTree[string]{"a": {Tag: "a"}}

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, []string{"a"}, forest, Options{Active: "a", Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "a *")
}

func TestDetectColor_NonTerminal(t *testing.T) {
	assert.False(t, DetectColor(&bytes.Buffer{}))
}
