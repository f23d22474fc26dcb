package usb

import (
	"context"
	"errors"
	"os"

	"github.com/google/gousb"
)

var (
	// ErrNoDevice indicates that no device matching the requested
	// vendor/product id is currently on the bus.
	ErrNoDevice = errors.New("usb: no matching device")

	// ErrTimeout indicates that a transfer did not complete within its
	// deadline. Mock transports return it directly; the gousb transport
	// surfaces libusb timeouts, which IsTimeout also recognizes.
	ErrTimeout = errors.New("usb: transfer timed out")
)

// IsTimeout reports whether err is a timeout-class transfer error.
//
// It matches ErrTimeout, libusb timeout errors from the gousb transport,
// and context deadline expiry (gousb cancels an in-flight transfer when
// the context deadline passes).
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, gousb.ErrorTimeout) ||
		errors.Is(err, gousb.TransferTimedOut) ||
		errors.Is(err, gousb.TransferCancelled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}
