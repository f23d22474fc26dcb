package aoab

import "errors"

var (
	// ErrDeviceNotFound indicates that no device matching either the
	// configured or unconfigured product id appeared on the bus before
	// the detection attempts were exhausted.
	ErrDeviceNotFound = errors.New("aoab: device not found")

	// ErrDeviceNotConfigured indicates that the device never re-enumerated
	// under the configured product id after the accessory mode switch.
	ErrDeviceNotConfigured = errors.New("aoab: device not configured")
)

var (
	// ErrProtocolVersionMismatch indicates that the device reported an AOA
	// protocol version other than 2.
	ErrProtocolVersionMismatch = errors.New("aoab: AOA protocol version mismatch")

	// ErrDescriptorTransferIncomplete indicates that the device acknowledged
	// fewer bytes of an accessory descriptor field than were sent.
	ErrDescriptorTransferIncomplete = errors.New("aoab: accessory descriptor transfer incomplete")

	// ErrAccessorySwitchFailed indicates that the accessory mode switch
	// request reported a non-zero transfer size.
	ErrAccessorySwitchFailed = errors.New("aoab: accessory mode switch failed")

	// ErrEndpointsNotFound indicates that interface (0,0) of the configured
	// device lacks a bulk OUT or bulk IN endpoint.
	ErrEndpointsNotFound = errors.New("aoab: bulk endpoint pair not found")
)

var (
	// ErrFrameTooLarge indicates that a frame payload exceeds the 16-bit
	// length field, 65535 bytes.
	ErrFrameTooLarge = errors.New("aoab: frame payload exceeds 65535 bytes")

	// ErrShortWrite indicates that a bulk transfer moved fewer bytes than
	// requested. A short payload write leaves a partial frame on the wire
	// and is never retried.
	ErrShortWrite = errors.New("aoab: short bulk write")

	// ErrPartialFrameTimeout indicates that a read timed out after the
	// frame header was already consumed, leaving the stream mid-frame.
	ErrPartialFrameTimeout = errors.New("aoab: timed out mid-frame")

	// ErrBridgeClosed indicates an operation on a closed bridge.
	ErrBridgeClosed = errors.New("aoab: bridge is closed")
)
