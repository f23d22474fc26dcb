// Package aoab bridges a host to an Android device over USB using the
// Android Open Accessory (AOA) protocol.
//
// A Bridge negotiates accessory mode with the device, discovers the bulk
// endpoint pair, and exchanges length-prefixed byte messages over it:
// each frame is a 2-byte big-endian length followed by 0-65535 payload
// bytes. Zero-length frames are valid and a single one is sent as a
// stream terminator when the bridge closes.
//
// The USB transport itself (enumeration, control transfers, bulk
// transfers) is abstracted behind the usb package; production code uses
// the gousb-backed transport, tests use mocks.
//
// Typical usage:
//
//	transport := usb.NewGousbTransport()
//	defer transport.Close()
//
//	bridge, err := aoab.Open(ctx, transport, aoab.Nexus4Identity, aoab.AccessoryDescriptor{
//		Manufacturer: "AoabManufacturer",
//		Model:        "AoabModel",
//		Description:  "AoabDescription",
//		Version:      "1",
//		URI:          "https://github.com/arloliu/go-aoab",
//		Serial:       "AoabSerial",
//	})
//	if err != nil {
//		return err
//	}
//	defer bridge.Close()
//
//	if err := bridge.Write(ctx, []byte("0")); err != nil {
//		return err
//	}
//
//	payload, ok, err := bridge.Read(ctx)
//
// Audio mode and multiple simultaneous accessory connections are not
// supported.
package aoab
