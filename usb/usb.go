// Package usb defines the narrow USB transport surface consumed by the
// go-aoab bridge: device lookup by vendor/product id, vendor control
// transfers, device reset, endpoint enumeration with direction metadata,
// and bulk transfers with context-based timeouts.
//
// The production implementation is backed by github.com/google/gousb
// (libusb); see NewGousbTransport. Tests use the mock implementations in
// mock.go.
package usb

import "context"

// Direction is the direction of a USB endpoint, from the host's point
// of view.
type Direction bool

const (
	// DirectionOut marks an endpoint the host writes to.
	DirectionOut Direction = false
	// DirectionIn marks an endpoint the host reads from.
	DirectionIn Direction = true
)

// String returns a human-readable representation of the direction.
func (d Direction) String() string {
	if d == DirectionIn {
		return "in"
	}
	return "out"
}

// EndpointDesc describes one endpoint of an interface setting.
type EndpointDesc struct {
	// Number is the endpoint number, unique per direction within an interface.
	Number int
	// Direction is the endpoint's fixed transfer direction.
	Direction Direction
	// MaxPacketSize is the maximum USB packet size in bytes.
	MaxPacketSize int
}

// Transport enumerates and opens USB devices. It owns the underlying
// USB context; Close releases it and must be called once all devices
// opened through it are closed.
type Transport interface {
	// FindDevice opens the first device matching the given vendor and
	// product id. It returns ErrNoDevice when no matching device is
	// currently on the bus.
	FindDevice(vendorID, productID uint16) (Device, error)

	// Close releases the transport.
	Close() error
}

// Device is an open USB device.
//
// A Device is owned by a single caller. It becomes unusable after Close,
// and after a Reset or a control transfer that causes the physical device
// to re-enumerate.
type Device interface {
	// ControlIn performs a vendor control transfer reading length bytes
	// from the device. It returns the bytes actually read.
	ControlIn(request uint8, value, index uint16, length int) ([]byte, error)

	// ControlOut performs a vendor control transfer sending data to the
	// device. It returns the number of bytes the device acknowledged.
	ControlOut(request uint8, value, index uint16, data []byte) (int, error)

	// Reset performs a USB port reset of the device.
	Reset() error

	// ActiveInterface claims interface (0,0) of the device's active
	// configuration and returns it.
	ActiveInterface() (Interface, error)

	// Close releases the device.
	Close() error
}

// Interface is a claimed USB interface setting.
type Interface interface {
	// Endpoints returns the endpoint descriptors of this interface
	// setting in enumeration order.
	Endpoints() []EndpointDesc

	// OutEndpoint opens the OUT endpoint with the given number.
	OutEndpoint(number int) (OutEndpoint, error)

	// InEndpoint opens the IN endpoint with the given number.
	InEndpoint(number int) (InEndpoint, error)

	// Close releases the interface claim.
	Close()
}

// OutEndpoint is a bulk OUT endpoint.
type OutEndpoint interface {
	// Write sends buf to the device. The context deadline bounds the
	// transfer; an expired deadline surfaces as a timeout-class error
	// (see IsTimeout).
	Write(ctx context.Context, buf []byte) (int, error)
}

// InEndpoint is a bulk IN endpoint.
type InEndpoint interface {
	// Read fills buf with data from the device. The context deadline
	// bounds the transfer; an expired deadline surfaces as a
	// timeout-class error (see IsTimeout).
	Read(ctx context.Context, buf []byte) (int, error)
}
