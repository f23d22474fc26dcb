package aoab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-aoab/logger"
	"github.com/arloliu/go-aoab/usb"
)

func newTestDetector(t *testing.T, transport usb.Transport, cfg *BridgeConfig) *detector {
	t.Helper()

	return &detector{
		transport: transport,
		identity:  Nexus4Identity,
		cfg:       cfg,
		logger:    logger.GetLogger(),
		metrics:   &BridgeMetrics{},
	}
}

func TestDetector_ConfiguredTakesPriority(t *testing.T) {
	sleeper := &sleepRecorder{}
	transport := usb.NewMockTransport()
	devC := usb.NewMockDevice()

	// Both product ids are enumerable; the configured one must win and the
	// unconfigured one must not even be queried.
	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.ConfiguredProductID).
		Return(devC, nil).Once()

	det := newTestDetector(t, transport, newTestConfig(t, sleeper))

	dev, configured, err := det.detect(context.Background())
	require.NoError(t, err)
	assert.Same(t, usb.Device(devC), dev)
	assert.True(t, configured)
	assert.Empty(t, sleeper.waits)

	transport.AssertExpectations(t)
	transport.AssertNotCalled(t, "FindDevice", Nexus4Identity.VendorID, Nexus4Identity.UnconfiguredProductID)
}

func TestDetector_FallsBackToUnconfigured(t *testing.T) {
	sleeper := &sleepRecorder{}
	transport := usb.NewMockTransport()
	devU := usb.NewMockDevice()

	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.ConfiguredProductID).
		Return(nil, usb.ErrNoDevice).Once()
	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.UnconfiguredProductID).
		Return(devU, nil).Once()

	det := newTestDetector(t, transport, newTestConfig(t, sleeper))

	dev, configured, err := det.detect(context.Background())
	require.NoError(t, err)
	assert.Same(t, usb.Device(devU), dev)
	assert.False(t, configured)

	transport.AssertExpectations(t)
}

func TestDetector_ExhaustsAttempts(t *testing.T) {
	sleeper := &sleepRecorder{}
	transport := usb.NewMockTransport()

	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.ConfiguredProductID).
		Return(nil, usb.ErrNoDevice).Times(5)
	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.UnconfiguredProductID).
		Return(nil, usb.ErrNoDevice).Times(5)

	det := newTestDetector(t, transport, newTestConfig(t, sleeper))

	_, _, err := det.detect(context.Background())
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	// 5 attempts, a wait between each pair of polls but none after the last.
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second, time.Second}, sleeper.waits)
	assert.Equal(t, uint64(4), det.metrics.DetectRetryCount.Load())

	transport.AssertExpectations(t)
}

func TestDetector_CanceledDuringWait(t *testing.T) {
	transport := usb.NewMockTransport()
	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.ConfiguredProductID).
		Return(nil, usb.ErrNoDevice)
	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.UnconfiguredProductID).
		Return(nil, usb.ErrNoDevice)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	det := newTestDetector(t, transport, newTestConfig(t, &sleepRecorder{}))

	_, _, err := det.detect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetector_TransportErrorPropagates(t *testing.T) {
	transport := usb.NewMockTransport()
	transportErr := errors.New("libusb: pipe error")

	transport.On("FindDevice", Nexus4Identity.VendorID, Nexus4Identity.ConfiguredProductID).
		Return(nil, transportErr).Once()

	det := newTestDetector(t, transport, newTestConfig(t, &sleepRecorder{}))

	_, _, err := det.detect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)
	assert.NotErrorIs(t, err, ErrDeviceNotFound)
}
