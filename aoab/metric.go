package aoab

import (
	"sync/atomic"
)

// BridgeMetrics contains atomic metrics for a bridge.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type BridgeMetrics struct {
	// FrameSendCount indicates the number of frames written, terminator included.
	FrameSendCount atomic.Uint64
	// FrameRecvCount indicates the number of complete frames read.
	FrameRecvCount atomic.Uint64

	// ByteSendCount indicates the number of payload bytes written.
	ByteSendCount atomic.Uint64
	// ByteRecvCount indicates the number of payload bytes read.
	ByteRecvCount atomic.Uint64

	// HeaderRetryCount indicates the number of frame header writes retried
	// after a timeout.
	HeaderRetryCount atomic.Uint64
	// DetectRetryCount indicates the number of detection polls that found
	// no matching device.
	DetectRetryCount atomic.Uint64
}

func (m *BridgeMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *BridgeMetrics) incFrameRecvCount() {
	m.FrameRecvCount.Add(1)
}

func (m *BridgeMetrics) addByteSendCount(n int) {
	m.ByteSendCount.Add(uint64(n)) //nolint:gosec // n is a payload length, 0-65535
}

func (m *BridgeMetrics) addByteRecvCount(n int) {
	m.ByteRecvCount.Add(uint64(n)) //nolint:gosec // n is a payload length, 0-65535
}

func (m *BridgeMetrics) incHeaderRetryCount() {
	m.HeaderRetryCount.Add(1)
}

func (m *BridgeMetrics) incDetectRetryCount() {
	m.DetectRetryCount.Add(1)
}
