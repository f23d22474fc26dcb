package aoab

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-aoab/logger"
	"github.com/arloliu/go-aoab/usb"
)

// detector polls the transport for a device matching the bridge identity.
//
// A device enumerated under the configured product id always takes priority
// over one under the unconfigured product id, so a half-switched bus state
// resolves toward the accessory-mode device.
type detector struct {
	transport usb.Transport
	identity  DeviceIdentity
	cfg       *BridgeConfig
	logger    logger.Logger
	metrics   *BridgeMetrics
}

// detect returns an open device matching the identity, and whether it was
// found under the configured product id.
//
// When no matching device is on the bus it waits one detect interval and
// polls again, up to the configured number of attempts, then fails with
// ErrDeviceNotFound. The wait is cancelable through ctx.
func (d *detector) detect(ctx context.Context) (usb.Device, bool, error) {
	attempts := d.cfg.DetectAttempts()

	for attempt := 1; ; attempt++ {
		dev, err := d.transport.FindDevice(d.identity.VendorID, d.identity.ConfiguredProductID)
		if err == nil {
			return dev, true, nil
		}

		if !errors.Is(err, usb.ErrNoDevice) {
			return nil, false, fmt.Errorf("aoab: find configured device: %w", err)
		}

		dev, err = d.transport.FindDevice(d.identity.VendorID, d.identity.UnconfiguredProductID)
		if err == nil {
			return dev, false, nil
		}

		if !errors.Is(err, usb.ErrNoDevice) {
			return nil, false, fmt.Errorf("aoab: find unconfigured device: %w", err)
		}

		if attempt >= attempts {
			return nil, false, fmt.Errorf("%w: %s after %d attempts", ErrDeviceNotFound, d.identity, attempts)
		}

		d.logger.Debug("no matching device, waiting", "identity", d.identity.String(), "attempt", attempt)
		d.metrics.incDetectRetryCount()

		if err := d.cfg.sleep(ctx, d.cfg.DetectInterval()); err != nil {
			return nil, false, err
		}
	}
}
