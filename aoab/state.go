package aoab

import "sync/atomic"

// BridgeState represents the lifecycle stage of a bridge.
type BridgeState uint32

const (
	// UnconfiguredState indicates that no configured device has been
	// acquired yet.
	UnconfiguredState BridgeState = iota
	// NegotiatingState indicates that the accessory mode handshake is in
	// progress and the pre-switch device handle is being consumed.
	NegotiatingState
	// ConfiguredState indicates that the configured device is open and the
	// framed channel is usable.
	ConfiguredState
	// ClosedState indicates that the bridge released its device resources.
	ClosedState
)

// IsConfigured returns if the current state is configured.
func (s BridgeState) IsConfigured() bool { return s == ConfiguredState }

// IsClosed returns if the current state is closed.
func (s BridgeState) IsClosed() bool { return s == ClosedState }

// String returns string representation of the current state.
func (s BridgeState) String() string {
	switch s {
	case UnconfiguredState:
		return "unconfigured"
	case NegotiatingState:
		return "negotiating"
	case ConfiguredState:
		return "configured"
	case ClosedState:
		return "closed"
	default:
		return "unknown"
	}
}

// atomicBridgeState holds a BridgeState with atomic transitions.
//
// The forward transitions mirror the physical lifecycle: the device is
// detected unconfigured, consumed by the handshake, re-enumerates as
// configured, and finally is released. ToClosed may fire from any state,
// but only once.
type atomicBridgeState struct {
	state atomic.Uint32
}

// Get returns the current state.
func (st *atomicBridgeState) Get() BridgeState {
	return BridgeState(st.state.Load())
}

func (st *atomicBridgeState) IsClosed() bool {
	return st.Get() == ClosedState
}

// ToNegotiating transitions Unconfigured -> Negotiating.
func (st *atomicBridgeState) ToNegotiating() bool {
	return st.state.CompareAndSwap(uint32(UnconfiguredState), uint32(NegotiatingState))
}

// ToConfigured transitions Negotiating -> Configured.
func (st *atomicBridgeState) ToConfigured() bool {
	return st.state.CompareAndSwap(uint32(NegotiatingState), uint32(ConfiguredState))
}

// ToClosed transitions any live state to Closed. It returns false if the
// state was already Closed, so close-time resource release runs exactly once.
func (st *atomicBridgeState) ToClosed() (BridgeState, bool) {
	for {
		cur := st.state.Load()
		if BridgeState(cur) == ClosedState {
			return ClosedState, false
		}
		if st.state.CompareAndSwap(cur, uint32(ClosedState)) {
			return BridgeState(cur), true
		}
	}
}
