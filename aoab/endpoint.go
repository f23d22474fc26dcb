package aoab

import (
	"fmt"

	"github.com/arloliu/go-aoab/usb"
)

// endpointPair holds the bulk endpoints of a configured device:
// exactly one OUT and one IN on interface (0,0) of the active
// configuration. It is resolved once per device handle and owned by the
// bridge until close.
type endpointPair struct {
	out usb.OutEndpoint
	in  usb.InEndpoint
}

// resolveEndpoints locates the first OUT and first IN endpoint of the
// claimed interface, in descriptor enumeration order, and opens them.
//
// Accessory-mode interfaces expose a single bulk pair; devices with more
// interfaces than that are out of scope, and no ordering beyond "first
// enumerated" is promised.
func resolveEndpoints(intf usb.Interface) (endpointPair, error) {
	var pair endpointPair
	var outDesc, inDesc *usb.EndpointDesc

	for _, desc := range intf.Endpoints() {
		switch desc.Direction {
		case usb.DirectionOut:
			if outDesc == nil {
				d := desc
				outDesc = &d
			}
		case usb.DirectionIn:
			if inDesc == nil {
				d := desc
				inDesc = &d
			}
		}
	}

	if outDesc == nil || inDesc == nil {
		return pair, fmt.Errorf("%w: out=%v in=%v", ErrEndpointsNotFound, outDesc != nil, inDesc != nil)
	}

	out, err := intf.OutEndpoint(outDesc.Number)
	if err != nil {
		return pair, fmt.Errorf("aoab: open OUT endpoint %d: %w", outDesc.Number, err)
	}

	in, err := intf.InEndpoint(inDesc.Number)
	if err != nil {
		return pair, fmt.Errorf("aoab: open IN endpoint %d: %w", inDesc.Number, err)
	}

	pair.out = out
	pair.in = in

	return pair, nil
}
