package aoab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBridgeState_String(t *testing.T) {
	assert.Equal(t, "unconfigured", UnconfiguredState.String())
	assert.Equal(t, "negotiating", NegotiatingState.String())
	assert.Equal(t, "configured", ConfiguredState.String())
	assert.Equal(t, "closed", ClosedState.String())
	assert.Equal(t, "unknown", BridgeState(99).String())
}

func TestAtomicBridgeState_ForwardTransitions(t *testing.T) {
	var st atomicBridgeState

	assert.Equal(t, UnconfiguredState, st.Get())

	assert.True(t, st.ToNegotiating())
	assert.Equal(t, NegotiatingState, st.Get())
	assert.False(t, st.ToNegotiating(), "transition must not repeat")

	assert.True(t, st.ToConfigured())
	assert.True(t, st.Get().IsConfigured())
	assert.False(t, st.ToConfigured())
}

func TestAtomicBridgeState_SkippedTransition(t *testing.T) {
	var st atomicBridgeState

	// Configured requires Negotiating first.
	assert.False(t, st.ToConfigured())
	assert.Equal(t, UnconfiguredState, st.Get())
}

func TestAtomicBridgeState_ToClosed(t *testing.T) {
	var st atomicBridgeState

	assert.True(t, st.ToNegotiating())
	assert.True(t, st.ToConfigured())

	prev, first := st.ToClosed()
	assert.True(t, first)
	assert.Equal(t, ConfiguredState, prev)
	assert.True(t, st.IsClosed())

	// Only the first close wins.
	_, again := st.ToClosed()
	assert.False(t, again)
}

func TestAtomicBridgeState_CloseFromAnyLiveState(t *testing.T) {
	var st atomicBridgeState

	prev, first := st.ToClosed()
	assert.True(t, first)
	assert.Equal(t, UnconfiguredState, prev)
}
