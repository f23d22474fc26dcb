package aoab

import (
	"context"
	"fmt"

	"github.com/arloliu/go-aoab/logger"
	"github.com/arloliu/go-aoab/usb"
)

// frameChannel implements the length-prefixed message protocol over a
// resolved bulk endpoint pair.
//
// frameChannel is NOT goroutine-safe per direction. The bridge permits one
// write and one read in flight at a time; concurrent calls in the same
// direction need caller-side mutual exclusion.
type frameChannel struct {
	pair    endpointPair
	cfg     *BridgeConfig
	logger  logger.Logger
	metrics *BridgeMetrics
}

func newFrameChannel(pair endpointPair, cfg *BridgeConfig, l logger.Logger, metrics *BridgeMetrics) *frameChannel {
	return &frameChannel{
		pair:    pair,
		cfg:     cfg,
		logger:  l,
		metrics: metrics,
	}
}

// writeFrame sends one frame: the 2-byte big-endian header, then the
// payload. Zero-length payloads are valid and produce a header-only frame.
//
// A timeout on the header send is retried indefinitely: the header write
// is idempotent while no payload byte has gone out, and giving up on it
// would desynchronize the stream. The retry loop stops when ctx is done.
// A short payload transfer is fatal ErrShortWrite and is never retried,
// since a partial frame already exists on the wire and cannot be resent
// without protocol-level resynchronization.
func (c *frameChannel) writeFrame(ctx context.Context, payload []byte) error {
	hdr, err := EncodeFrameHeader(len(payload))
	if err != nil {
		return err
	}

	if err := c.writeHeader(ctx, hdr); err != nil {
		return err
	}

	if len(payload) > 0 {
		sent, err := c.write(ctx, payload)
		if err != nil {
			return fmt.Errorf("aoab: write frame payload: %w", err)
		}

		if sent != len(payload) {
			return fmt.Errorf("%w: payload sent %d of %d bytes", ErrShortWrite, sent, len(payload))
		}
	}

	c.metrics.incFrameSendCount()
	c.metrics.addByteSendCount(len(payload))

	return nil
}

// writeHeader sends the 2-byte header, busy-retrying timeout-class errors.
func (c *frameChannel) writeHeader(ctx context.Context, hdr [frameHeaderSize]byte) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sent, err := c.write(ctx, hdr[:])
		if err != nil {
			if usb.IsTimeout(err) {
				c.logger.Debug("frame header write timed out, retrying")
				c.metrics.incHeaderRetryCount()

				continue
			}

			return fmt.Errorf("aoab: write frame header: %w", err)
		}

		if sent != frameHeaderSize {
			return fmt.Errorf("%w: header sent %d of %d bytes", ErrShortWrite, sent, frameHeaderSize)
		}

		return nil
	}
}

// readFrame reads one frame. It returns ok=false with a nil error when no
// frame arrived before the read timeout; that is the normal "no data yet"
// signal and is not a failure.
//
// A timeout after the header has been consumed leaves the stream mid-frame
// and surfaces as ErrPartialFrameTimeout; the channel does not buffer
// partial frames across calls.
func (c *frameChannel) readFrame(ctx context.Context) (payload []byte, ok bool, err error) {
	var hdr [frameHeaderSize]byte

	n, err := c.read(ctx, hdr[:])
	if err != nil {
		if usb.IsTimeout(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("aoab: read frame header: %w", err)
	}

	if n != frameHeaderSize {
		return nil, false, fmt.Errorf("aoab: read frame header: got %d of %d bytes", n, frameHeaderSize)
	}

	size := DecodeFrameHeader(hdr)
	payload = make([]byte, size)

	for read := 0; read < size; {
		n, err := c.read(ctx, payload[read:])
		if err != nil {
			if usb.IsTimeout(err) {
				return nil, false, fmt.Errorf("%w: got %d of %d payload bytes", ErrPartialFrameTimeout, read, size)
			}

			return nil, false, fmt.Errorf("aoab: read frame payload: %w", err)
		}

		read += n
	}

	c.metrics.incFrameRecvCount()
	c.metrics.addByteRecvCount(size)

	return payload, true, nil
}

// writeTerminator sends a single zero-length frame without the header
// retry loop. It is used at close time, where a dead device must not keep
// the bridge alive; errors are reported but treated as best effort.
func (c *frameChannel) writeTerminator(ctx context.Context) error {
	hdr, _ := EncodeFrameHeader(0)

	sent, err := c.write(ctx, hdr[:])
	if err != nil {
		return fmt.Errorf("aoab: write terminator frame: %w", err)
	}

	if sent != frameHeaderSize {
		return fmt.Errorf("%w: terminator sent %d of %d bytes", ErrShortWrite, sent, frameHeaderSize)
	}

	c.metrics.incFrameSendCount()

	return nil
}

// write performs one bulk OUT transfer under the configured write timeout.
func (c *frameChannel) write(ctx context.Context, buf []byte) (int, error) {
	if t := c.cfg.WriteTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	return c.pair.out.Write(ctx, buf)
}

// read performs one bulk IN transfer under the configured read timeout.
func (c *frameChannel) read(ctx context.Context, buf []byte) (int, error) {
	if t := c.cfg.ReadTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	return c.pair.in.Read(ctx, buf)
}
