package aoab

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/arloliu/go-aoab/usb"
)

// AOA vendor control requests (accessory protocol 2).
const (
	// requestGetProtocol reads the device's AOA protocol version,
	// 2 bytes little-endian.
	requestGetProtocol uint8 = 51

	// requestSendString sends one accessory descriptor string; the string
	// index 0-5 goes in the control transfer's index field.
	requestSendString uint8 = 52

	// requestStart commands the switch to accessory mode. The device
	// drops off the bus and re-enumerates under the accessory product id.
	requestStart uint8 = 53
)

// aoaProtocolVersion is the only protocol version the bridge speaks.
const aoaProtocolVersion uint16 = 2

// negotiator drives the one-time accessory mode handshake.
type negotiator struct {
	detector

	descriptor AccessoryDescriptor

	// onState reports lifecycle transitions back to the owning bridge.
	onState func(BridgeState)
}

// negotiate acquires a device in accessory mode and returns its handle.
//
// An unconfigured device is switched via the AOA control handshake; the
// pre-switch handle is consumed because the physical device re-enumerates
// under the configured product id. An already-configured device is only
// reset, which brings the companion app back to the foreground.
// Either way the device is then re-polled until it shows up configured,
// failing with ErrDeviceNotConfigured once the attempts are exhausted.
func (n *negotiator) negotiate(ctx context.Context) (usb.Device, error) {
	dev, configured, err := n.detect(ctx)
	if err != nil {
		return nil, err
	}

	n.onState(NegotiatingState)

	if configured {
		n.logger.Debug("device already configured, resetting", "identity", n.identity.String())

		err = dev.Reset()
		// The reset invalidates the handle regardless of the outcome.
		_ = dev.Close()
		if err != nil {
			return nil, fmt.Errorf("aoab: reset configured device: %w", err)
		}

		if err := n.cfg.sleep(ctx, n.cfg.SettleDelay()); err != nil {
			return nil, err
		}
	} else {
		err = n.switchToAccessory(dev)
		// Release the pre-switch handle; the device is re-enumerating.
		_ = dev.Close()
		if err != nil {
			return nil, err
		}
	}

	return n.waitConfigured(ctx)
}

// switchToAccessory performs the control transfer handshake on an
// unconfigured device: protocol version check, the six descriptor
// strings, then the start request.
func (n *negotiator) switchToAccessory(dev usb.Device) error {
	buf, err := dev.ControlIn(requestGetProtocol, 0, 0, 2)
	if err != nil {
		return fmt.Errorf("aoab: read AOA protocol version: %w", err)
	}

	if len(buf) != 2 {
		return fmt.Errorf("%w: got %d version bytes", ErrProtocolVersionMismatch, len(buf))
	}

	version := binary.LittleEndian.Uint16(buf)
	if version != aoaProtocolVersion {
		return fmt.Errorf("%w: device speaks version %d", ErrProtocolVersionMismatch, version)
	}

	n.logger.Debug("AOA protocol version verified", "version", version)

	for i, field := range n.descriptor.fields() {
		sent, err := dev.ControlOut(requestSendString, 0, uint16(i), []byte(field)) //nolint:gosec // i is 0-5
		if err != nil {
			return fmt.Errorf("aoab: send descriptor string %d: %w", i, err)
		}

		if sent != len(field) {
			return fmt.Errorf("%w: string %d sent %d of %d bytes", ErrDescriptorTransferIncomplete, i, sent, len(field))
		}
	}

	sent, err := dev.ControlOut(requestStart, 0, 0, nil)
	if err != nil {
		return fmt.Errorf("aoab: start accessory mode: %w", err)
	}

	if sent != 0 {
		return fmt.Errorf("%w: start request reported %d bytes", ErrAccessorySwitchFailed, sent)
	}

	n.logger.Info("accessory mode switch requested", "identity", n.identity.String())

	return nil
}

// waitConfigured re-polls until the device enumerates under the configured
// product id. Mode switching is asynchronous re-enumeration at the bus
// level; bounded re-polls absorb that latency without a fixed delay.
func (n *negotiator) waitConfigured(ctx context.Context) (usb.Device, error) {
	attempts := n.cfg.ConfigureAttempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		dev, configured, err := n.detect(ctx)
		if err != nil {
			return nil, err
		}

		if configured {
			n.logger.Info("configured device acquired", "identity", n.identity.String(), "attempt", attempt)
			return dev, nil
		}

		// Still enumerated under the old product id; drop the handle
		// and give the device another interval to re-enumerate.
		_ = dev.Close()

		n.logger.Debug("device not configured yet, waiting", "attempt", attempt)

		if err := n.cfg.sleep(ctx, n.cfg.DetectInterval()); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts", ErrDeviceNotConfigured, n.identity, attempts)
}
