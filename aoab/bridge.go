package aoab

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-aoab/logger"
	"github.com/arloliu/go-aoab/usb"
)

// StateChangeHandler is invoked when the bridge lifecycle state changes.
//
// Note: handlers run synchronously inside the transition. Take care with
// long-running implementations.
type StateChangeHandler func(prev BridgeState, next BridgeState)

// Bridge is a host-side connection to an Android device in accessory mode.
//
// A Bridge owns one device handle and one bulk endpoint pair, used by one
// logical caller: one write and one read may be in flight concurrently,
// but concurrent calls in the same direction need caller-side exclusion.
//
// Close is safe to call on every exit path, including concurrently;
// resources are released exactly once. Any other operation on a closed
// bridge fails with ErrBridgeClosed.
type Bridge struct {
	cfg     *BridgeConfig
	logger  logger.Logger
	metrics BridgeMetrics

	identity   DeviceIdentity
	descriptor AccessoryDescriptor

	device  usb.Device
	intf    usb.Interface
	channel *frameChannel

	state     atomicBridgeState
	handlers  *xsync.MapOf[uint64, StateChangeHandler]
	handlerID atomic.Uint64
}

// Open acquires a device matching identity, negotiates accessory mode if
// needed, resolves the bulk endpoint pair, and returns a ready bridge.
//
// The transport remains owned by the caller and is not closed by the
// bridge. On error no resources are retained. Callers should pair a
// successful Open with a deferred Close so teardown runs on every exit
// path:
//
//	bridge, err := aoab.Open(ctx, transport, identity, descriptor)
//	if err != nil {
//		return err
//	}
//	defer bridge.Close()
func Open(
	ctx context.Context,
	transport usb.Transport,
	identity DeviceIdentity,
	descriptor AccessoryDescriptor,
	opts ...BridgeOption,
) (*Bridge, error) {
	cfg, err := NewBridgeConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("aoab: invalid bridge config: %w", err)
	}

	b := &Bridge{
		cfg:        cfg,
		logger:     cfg.Logger(),
		identity:   identity,
		descriptor: descriptor,
		handlers:   xsync.NewMapOf[uint64, StateChangeHandler](),
	}

	neg := &negotiator{
		detector: detector{
			transport: transport,
			identity:  identity,
			cfg:       cfg,
			logger:    b.logger,
			metrics:   &b.metrics,
		},
		descriptor: descriptor,
		onState:    b.transition,
	}

	dev, err := neg.negotiate(ctx)
	if err != nil {
		return nil, err
	}

	intf, err := dev.ActiveInterface()
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	pair, err := resolveEndpoints(intf)
	if err != nil {
		intf.Close()
		_ = dev.Close()

		return nil, err
	}

	b.device = dev
	b.intf = intf
	b.channel = newFrameChannel(pair, cfg, b.logger, &b.metrics)
	b.transition(ConfiguredState)

	return b, nil
}

// State returns the current lifecycle state.
func (b *Bridge) State() BridgeState {
	return b.state.Get()
}

// Metrics returns the bridge metrics.
func (b *Bridge) Metrics() *BridgeMetrics {
	return &b.metrics
}

// OnStateChange registers a handler invoked on lifecycle transitions and
// returns an id for RemoveStateChangeHandler.
func (b *Bridge) OnStateChange(handler StateChangeHandler) uint64 {
	id := b.handlerID.Add(1)
	b.handlers.Store(id, handler)

	return id
}

// RemoveStateChangeHandler unregisters a handler by id.
func (b *Bridge) RemoveStateChangeHandler(id uint64) {
	b.handlers.Delete(id)
}

// Write sends payload as one frame. The payload may be empty; it must not
// exceed MaxFramePayload bytes.
func (b *Bridge) Write(ctx context.Context, payload []byte) error {
	if b.state.IsClosed() {
		return ErrBridgeClosed
	}

	return b.channel.writeFrame(ctx, payload)
}

// Read returns the next frame's payload. ok is false when no frame
// arrived before the read timeout; callers treat that as "no data yet"
// and poll again.
func (b *Bridge) Read(ctx context.Context) (payload []byte, ok bool, err error) {
	if b.state.IsClosed() {
		return nil, false, ErrBridgeClosed
	}

	return b.channel.readFrame(ctx)
}

// Close sends a zero-length terminator frame best effort, then releases
// the endpoint pair, interface, and device handle. It is idempotent; only
// the first call performs the release.
func (b *Bridge) Close() error {
	prev, first := b.state.ToClosed()
	if !first {
		return nil
	}

	b.notify(prev, ClosedState)

	// The terminator tells the peer the stream is over. A device that
	// already disappeared must not block teardown.
	if err := b.channel.writeTerminator(context.Background()); err != nil {
		b.logger.Warn("terminator frame not delivered", "error", err)
	}

	b.intf.Close()

	err := b.device.Close()
	if err != nil {
		err = fmt.Errorf("aoab: release device: %w", err)
	}

	b.logger.Info("bridge closed", "identity", b.identity.String())

	return err
}

// transition moves the lifecycle state forward and notifies handlers.
func (b *Bridge) transition(next BridgeState) {
	var prev BridgeState
	var moved bool

	switch next {
	case NegotiatingState:
		prev, moved = UnconfiguredState, b.state.ToNegotiating()
	case ConfiguredState:
		prev, moved = NegotiatingState, b.state.ToConfigured()
	default:
		return
	}

	if !moved {
		return
	}

	b.logger.Debug("bridge state changed", "prev", prev.String(), "next", next.String())
	b.notify(prev, next)
}

func (b *Bridge) notify(prev, next BridgeState) {
	b.handlers.Range(func(_ uint64, handler StateChangeHandler) bool {
		handler(prev, next)
		return true
	})
}
