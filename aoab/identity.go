package aoab

import "fmt"

// DeviceIdentity holds the USB vendor/product ids a bridge watches for.
//
// An Android device exposes UnconfiguredProductID in its normal mode
// (MTP, ADB, ...) and re-enumerates under ConfiguredProductID once it has
// switched to accessory mode. The identity is immutable for the lifetime
// of a bridge.
type DeviceIdentity struct {
	VendorID              uint16
	UnconfiguredProductID uint16
	ConfiguredProductID   uint16
}

// Nexus4Identity is the identity of a Nexus 4 in MTP mode switching to
// AOA mode. These are configuration inputs, not protocol constants; other
// devices need their own ids.
var Nexus4Identity = DeviceIdentity{
	VendorID:              0x18d1,
	UnconfiguredProductID: 0x4ee2,
	ConfiguredProductID:   0x2d01,
}

// String returns the identity as "vendor:unconfigured/configured".
func (id DeviceIdentity) String() string {
	return fmt.Sprintf("%04x:%04x/%04x", id.VendorID, id.UnconfiguredProductID, id.ConfiguredProductID)
}

// AccessoryDescriptor identifies the accessory to the Android device
// during negotiation. The fields are sent once, as raw bytes, in the
// fixed AOA string index order 0-5; the companion app matches on them
// to decide whether to attach.
type AccessoryDescriptor struct {
	Manufacturer string
	Model        string
	Description  string
	Version      string
	URI          string
	Serial       string
}

// fields returns the descriptor strings in AOA string index order.
func (d AccessoryDescriptor) fields() [6]string {
	return [6]string{d.Manufacturer, d.Model, d.Description, d.Version, d.URI, d.Serial}
}
