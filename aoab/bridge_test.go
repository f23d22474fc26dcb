package aoab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-aoab/usb"
)

// bridgeFixture wires a mock transport whose device is already in
// accessory mode: Open goes through reset, settle, and re-poll, then
// resolves the fake endpoint pair.
type bridgeFixture struct {
	transport *usb.MockTransport
	devOld    *usb.MockDevice
	devNew    *usb.MockDevice
	intf      *usb.MockInterface
	out       *fakeOutEndpoint
	in        *fakeInEndpoint
}

func newBridgeFixture() *bridgeFixture {
	f := &bridgeFixture{
		transport: usb.NewMockTransport(),
		devOld:    usb.NewMockDevice(),
		devNew:    usb.NewMockDevice(),
		intf:      usb.NewMockInterface(),
		out:       &fakeOutEndpoint{},
		in:        &fakeInEndpoint{},
	}

	f.transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.ConfiguredProductID).
		Return(f.devOld, nil).Once()
	f.devOld.On("Reset").Return(nil).Once()
	f.devOld.On("Close").Return(nil).Once()

	f.transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.ConfiguredProductID).
		Return(f.devNew, nil).Once()
	f.devNew.On("ActiveInterface").Return(f.intf, nil).Once()

	f.intf.On("Endpoints").Return([]usb.EndpointDesc{
		{Number: 1, Direction: usb.DirectionOut, MaxPacketSize: 512},
		{Number: 1, Direction: usb.DirectionIn, MaxPacketSize: 512},
	}).Once()
	f.intf.On("OutEndpoint", 1).Return(f.out, nil).Once()
	f.intf.On("InEndpoint", 1).Return(f.in, nil).Once()
	f.intf.On("Close").Return().Once()

	f.devNew.On("Close").Return(nil).Once()

	return f
}

func (f *bridgeFixture) open(t *testing.T) *Bridge {
	t.Helper()

	bridge, err := Open(context.Background(), f.transport, Nexus4Identity, testDescriptor,
		WithSleepFunc((&sleepRecorder{}).sleep),
	)
	require.NoError(t, err)

	return bridge
}

func TestOpen(t *testing.T) {
	f := newBridgeFixture()
	bridge := f.open(t)

	assert.Equal(t, ConfiguredState, bridge.State())

	require.NoError(t, bridge.Close())
	f.transport.AssertExpectations(t)
	f.devNew.AssertExpectations(t)
	f.intf.AssertExpectations(t)
}

func TestOpen_InvalidConfig(t *testing.T) {
	transport := usb.NewMockTransport()

	_, err := Open(context.Background(), transport, Nexus4Identity, testDescriptor,
		WithDetectAttempts(0),
	)
	require.Error(t, err)

	transport.AssertNotCalled(t, "FindDevice", mock.Anything, mock.Anything)
}

func TestOpen_EndpointsNotFound(t *testing.T) {
	f := newBridgeFixture()

	// Replace the endpoint expectations: only an OUT endpoint exists.
	f.intf.ExpectedCalls = nil
	f.intf.On("Endpoints").Return([]usb.EndpointDesc{
		{Number: 1, Direction: usb.DirectionOut},
	}).Once()
	f.intf.On("Close").Return().Once()

	_, err := Open(context.Background(), f.transport, Nexus4Identity, testDescriptor,
		WithSleepFunc((&sleepRecorder{}).sleep),
	)
	assert.ErrorIs(t, err, ErrEndpointsNotFound)

	// The claimed resources are released on the failure path.
	f.intf.AssertCalled(t, "Close")
	f.devNew.AssertCalled(t, "Close")
}

func TestBridge_EmptyWriteThenClose(t *testing.T) {
	f := newBridgeFixture()
	bridge := f.open(t)

	require.NoError(t, bridge.Write(context.Background(), []byte{}))
	require.NoError(t, bridge.Close())

	// The explicit empty write plus the close-time terminator: exactly two
	// zero-length frames on the wire.
	require.Len(t, f.out.writes, 2)
	assert.Equal(t, []byte{0x00, 0x00}, f.out.writes[0])
	assert.Equal(t, []byte{0x00, 0x00}, f.out.writes[1])

	f.devNew.AssertNumberOfCalls(t, "Close", 1)
}

func TestBridge_CloseIdempotent(t *testing.T) {
	f := newBridgeFixture()
	bridge := f.open(t)

	require.NoError(t, bridge.Close())
	require.NoError(t, bridge.Close())

	// Resources released exactly once, one terminator frame.
	f.devNew.AssertNumberOfCalls(t, "Close", 1)
	f.intf.AssertNumberOfCalls(t, "Close", 1)
	assert.Len(t, f.out.writes, 1)
}

func TestBridge_UseAfterClose(t *testing.T) {
	f := newBridgeFixture()
	bridge := f.open(t)

	require.NoError(t, bridge.Close())

	err := bridge.Write(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrBridgeClosed)

	_, _, err = bridge.Read(context.Background())
	assert.ErrorIs(t, err, ErrBridgeClosed)
}

func TestBridge_ReadWrite(t *testing.T) {
	f := newBridgeFixture()
	f.in.events = []inEvent{
		{data: []byte{0x00, 0x04}},
		{data: []byte("pong")},
	}

	bridge := f.open(t)
	defer bridge.Close()

	require.NoError(t, bridge.Write(context.Background(), []byte("ping")))
	require.Len(t, f.out.writes, 2)
	assert.Equal(t, []byte{0x00, 0x04}, f.out.writes[0])
	assert.Equal(t, []byte("ping"), f.out.writes[1])

	payload, ok, err := bridge.Read(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("pong"), payload)

	metrics := bridge.Metrics()
	assert.Equal(t, uint64(1), metrics.FrameSendCount.Load())
	assert.Equal(t, uint64(1), metrics.FrameRecvCount.Load())
}

func TestBridge_CloseTerminatorBestEffort(t *testing.T) {
	f := newBridgeFixture()
	bridge := f.open(t)

	// The device vanished; the terminator cannot be delivered but the
	// resources are still released.
	f.out.script = []outResult{{err: usb.ErrTimeout}}

	require.NoError(t, bridge.Close())
	f.devNew.AssertNumberOfCalls(t, "Close", 1)
	f.intf.AssertNumberOfCalls(t, "Close", 1)
}

func TestBridge_StateChangeHandler(t *testing.T) {
	f := newBridgeFixture()
	bridge := f.open(t)

	var transitions [][2]BridgeState
	id := bridge.OnStateChange(func(prev, next BridgeState) {
		transitions = append(transitions, [2]BridgeState{prev, next})
	})

	require.NoError(t, bridge.Close())
	require.Len(t, transitions, 1)
	assert.Equal(t, [2]BridgeState{ConfiguredState, ClosedState}, transitions[0])

	// Removed handlers stay silent.
	bridge.RemoveStateChangeHandler(id)
	require.NoError(t, bridge.Close())
	assert.Len(t, transitions, 1)
}
