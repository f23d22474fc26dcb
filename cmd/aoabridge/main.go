// Command aoabridge opens an Android Open Accessory bridge to a connected
// device and echoes incremented integers with the companion app: it writes
// "0", then keeps reading a number and writing it back plus one.
//
// Transport-level failures tear the whole bridge down and restart the
// lifecycle from scratch, matching the coarse restart policy of a
// USB link that may drop at any moment.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/arloliu/go-aoab/aoab"
	"github.com/arloliu/go-aoab/logger"
	"github.com/arloliu/go-aoab/usb"
)

var cli struct {
	VendorID            string `name:"vendor-id" default:"18d1" help:"USB vendor id, hex."`
	UnconfiguredProduct string `name:"unconfigured-product" default:"4ee2" help:"Product id before the accessory mode switch, hex."`
	ConfiguredProduct   string `name:"configured-product" default:"2d01" help:"Product id after the accessory mode switch, hex."`

	Manufacturer string `default:"AoabManufacturer" help:"Accessory manufacturer string."`
	Model        string `default:"AoabModel" help:"Accessory model string."`
	Description  string `default:"AoabDescription" help:"Accessory description string."`
	Version      string `default:"1" help:"Accessory version string."`
	URI          string `name:"uri" default:"https://github.com/arloliu/go-aoab" help:"Accessory URI string."`
	Serial       string `default:"AoabSerial" help:"Accessory serial string."`

	ReadTimeout  time.Duration `default:"1s" help:"Bulk read timeout."`
	WriteTimeout time.Duration `default:"1s" help:"Bulk write timeout."`
	LogLevel     string        `default:"info" enum:"debug,info,warn,error" help:"Log level."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("aoabridge"),
		kong.Description("Echo incremented integers over an Android Open Accessory bridge."),
		kong.UsageOnError(),
	)

	log := logger.NewSlog(parseLogLevel(cli.LogLevel), false)

	identity, err := parseIdentity()
	kctx.FatalIfErrorf(err)

	descriptor := aoab.AccessoryDescriptor{
		Manufacturer: cli.Manufacturer,
		Model:        cli.Model,
		Description:  cli.Description,
		Version:      cli.Version,
		URI:          cli.URI,
		Serial:       cli.Serial,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kctx.FatalIfErrorf(run(ctx, log, identity, descriptor))
}

func run(ctx context.Context, log logger.Logger, identity aoab.DeviceIdentity, descriptor aoab.AccessoryDescriptor) error {
	transport := usb.NewGousbTransport()
	defer func() {
		_ = transport.Close()
	}()

	for ctx.Err() == nil {
		err := session(ctx, log, transport, identity, descriptor)
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}

		log.Error("bridge session failed, restarting", "error", err)
	}

	return nil
}

// session runs one full bridge lifecycle: open, seed the counter, echo
// until the context is canceled or the link fails.
func session(
	ctx context.Context,
	log logger.Logger,
	transport usb.Transport,
	identity aoab.DeviceIdentity,
	descriptor aoab.AccessoryDescriptor,
) error {
	bridge, err := aoab.Open(ctx, transport, identity, descriptor,
		aoab.WithLogger(log),
		aoab.WithReadTimeout(cli.ReadTimeout),
		aoab.WithWriteTimeout(cli.WriteTimeout),
	)
	if err != nil {
		return err
	}
	defer func() {
		_ = bridge.Close()
	}()

	if err := bridge.Write(ctx, []byte("0")); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, ok, err := bridge.Read(ctx)
		if err != nil {
			return err
		}

		if !ok || len(payload) == 0 {
			continue
		}

		value, err := strconv.Atoi(string(payload))
		if err != nil {
			log.Warn("frame is not a number, skipping", "payload", string(payload))
			continue
		}

		log.Info("read value", "value", value)

		if err := bridge.Write(ctx, []byte(strconv.Itoa(value+1))); err != nil {
			return err
		}
	}
}

func parseIdentity() (aoab.DeviceIdentity, error) {
	var identity aoab.DeviceIdentity
	var err error

	if identity.VendorID, err = parseID(cli.VendorID); err != nil {
		return identity, fmt.Errorf("vendor id: %w", err)
	}

	if identity.UnconfiguredProductID, err = parseID(cli.UnconfiguredProduct); err != nil {
		return identity, fmt.Errorf("unconfigured product id: %w", err)
	}

	if identity.ConfiguredProductID, err = parseID(cli.ConfiguredProduct); err != nil {
		return identity, fmt.Errorf("configured product id: %w", err)
	}

	return identity, nil
}

func parseID(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid usb id %q: %w", s, err)
	}

	return uint16(v), nil
}

func parseLogLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}
