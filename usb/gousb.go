package usb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/gousb"
)

// NewGousbTransport returns a Transport backed by a fresh gousb (libusb)
// context. The caller must Close it after all devices opened through it
// are closed.
func NewGousbTransport() Transport {
	return &gousbTransport{ctx: gousb.NewContext()}
}

type gousbTransport struct {
	ctx *gousb.Context
}

func (t *gousbTransport) FindDevice(vendorID, productID uint16) (Device, error) {
	dev, err := t.ctx.OpenDeviceWithVIDPID(gousb.ID(vendorID), gousb.ID(productID))
	if err != nil {
		return nil, fmt.Errorf("usb: open device %04x:%04x: %w", vendorID, productID, err)
	}

	if dev == nil {
		return nil, ErrNoDevice
	}

	// Detach any kernel driver before the interface claim. Android devices
	// in MTP/ADB mode are usually bound to one.
	_ = dev.SetAutoDetach(true)

	return &gousbDevice{dev: dev}, nil
}

func (t *gousbTransport) Close() error {
	return t.ctx.Close()
}

type gousbDevice struct {
	dev *gousb.Device
}

func (d *gousbDevice) ControlIn(request uint8, value, index uint16, length int) ([]byte, error) {
	buf := make([]byte, length)

	rType := uint8(gousb.ControlIn) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)

	n, err := d.dev.Control(rType, request, value, index, buf)
	if err != nil {
		return nil, fmt.Errorf("usb: control in request %d: %w", request, err)
	}

	return buf[:n], nil
}

func (d *gousbDevice) ControlOut(request uint8, value, index uint16, data []byte) (int, error) {
	rType := uint8(gousb.ControlOut) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)

	n, err := d.dev.Control(rType, request, value, index, data)
	if err != nil {
		return n, fmt.Errorf("usb: control out request %d: %w", request, err)
	}

	return n, nil
}

func (d *gousbDevice) Reset() error {
	return d.dev.Reset()
}

func (d *gousbDevice) ActiveInterface() (Interface, error) {
	cfgNum, err := d.dev.ActiveConfigNum()
	if err != nil {
		return nil, fmt.Errorf("usb: read active config: %w", err)
	}

	cfg, err := d.dev.Config(cfgNum)
	if err != nil {
		return nil, fmt.Errorf("usb: claim config %d: %w", cfgNum, err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		_ = cfg.Close()
		return nil, fmt.Errorf("usb: claim interface (0,0): %w", err)
	}

	return &gousbInterface{cfg: cfg, intf: intf}, nil
}

func (d *gousbDevice) Close() error {
	return d.dev.Close()
}

type gousbInterface struct {
	cfg  *gousb.Config
	intf *gousb.Interface
}

func (i *gousbInterface) Endpoints() []EndpointDesc {
	eps := make([]EndpointDesc, 0, len(i.intf.Setting.Endpoints))
	for _, desc := range i.intf.Setting.Endpoints {
		eps = append(eps, EndpointDesc{
			Number:        desc.Number,
			Direction:     Direction(desc.Direction == gousb.EndpointDirectionIn),
			MaxPacketSize: desc.MaxPacketSize,
		})
	}

	// gousb keys endpoints by address in a map; sort by number so
	// enumeration order is deterministic.
	sort.Slice(eps, func(a, b int) bool { return eps[a].Number < eps[b].Number })

	return eps
}

func (i *gousbInterface) OutEndpoint(number int) (OutEndpoint, error) {
	ep, err := i.intf.OutEndpoint(number)
	if err != nil {
		return nil, fmt.Errorf("usb: open OUT endpoint %d: %w", number, err)
	}

	return &gousbOutEndpoint{ep: ep}, nil
}

func (i *gousbInterface) InEndpoint(number int) (InEndpoint, error) {
	ep, err := i.intf.InEndpoint(number)
	if err != nil {
		return nil, fmt.Errorf("usb: open IN endpoint %d: %w", number, err)
	}

	return &gousbInEndpoint{ep: ep}, nil
}

func (i *gousbInterface) Close() {
	i.intf.Close()
	_ = i.cfg.Close()
}

type gousbOutEndpoint struct {
	ep *gousb.OutEndpoint
}

func (e *gousbOutEndpoint) Write(ctx context.Context, buf []byte) (int, error) {
	return e.ep.WriteContext(ctx, buf)
}

type gousbInEndpoint struct {
	ep *gousb.InEndpoint
}

func (e *gousbInEndpoint) Read(ctx context.Context, buf []byte) (int, error) {
	return e.ep.ReadContext(ctx, buf)
}
