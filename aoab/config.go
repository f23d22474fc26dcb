package aoab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/go-aoab/internal/pool"
	"github.com/arloliu/go-aoab/logger"
)

// SleepFunc waits for the given duration or until the context is done,
// returning the context's error in the latter case. Bridges sleep between
// detection polls and after a device reset; tests inject a no-op
// implementation to avoid real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// BridgeConfig represents the configuration parameters for a bridge.
type BridgeConfig struct {
	mu sync.RWMutex

	// detectAttempts is the number of detection polls before giving up on
	// finding any matching device.
	// Defaults to 5.
	detectAttempts int

	// detectInterval is the wait between detection polls.
	// Defaults to 1 second.
	detectInterval time.Duration

	// configureAttempts is the number of re-polls waiting for the device to
	// re-enumerate under the configured product id after the accessory
	// mode switch.
	// Defaults to 5.
	configureAttempts int

	// settleDelay is the wait after resetting an already-configured device,
	// giving the companion app time to come to the foreground.
	// Defaults to 1 second.
	settleDelay time.Duration

	// readTimeout bounds a single bulk IN transfer. Zero means no deadline.
	// Defaults to 1 second.
	readTimeout time.Duration

	// writeTimeout bounds a single bulk OUT transfer. Zero means no deadline.
	// Defaults to 1 second.
	writeTimeout time.Duration

	// sleep implements the waits above.
	sleep SleepFunc

	// logger provides a logger instance for logging bridge events and errors.
	logger logger.Logger
}

// NewBridgeConfig creates a bridge configuration with default values,
// then applies the provided options.
//
// Returns a pointer to the initialized BridgeConfig and an error if any
// option value is out of range.
func NewBridgeConfig(opts ...BridgeOption) (*BridgeConfig, error) {
	cfg := &BridgeConfig{
		detectAttempts:    5,
		detectInterval:    time.Second,
		configureAttempts: 5,
		settleDelay:       time.Second,
		readTimeout:       time.Second,
		writeTimeout:      time.Second,
		sleep:             sleepContext,
		logger:            logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func (cfg *BridgeConfig) DetectAttempts() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.detectAttempts
}

func (cfg *BridgeConfig) DetectInterval() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.detectInterval
}

func (cfg *BridgeConfig) ConfigureAttempts() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.configureAttempts
}

func (cfg *BridgeConfig) SettleDelay() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.settleDelay
}

func (cfg *BridgeConfig) ReadTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.readTimeout
}

func (cfg *BridgeConfig) WriteTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.writeTimeout
}

func (cfg *BridgeConfig) Logger() logger.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.logger
}

// BridgeOption is the interface for applying configuration options to
// a BridgeConfig.
type BridgeOption interface {
	apply(*BridgeConfig) error
}

type bridgeOptFunc func(*BridgeConfig) error

func (f bridgeOptFunc) apply(cfg *BridgeConfig) error { return f(cfg) }

// WithDetectAttempts sets the number of detection polls before the bridge
// gives up with ErrDeviceNotFound. It should be between 1 and 60.
func WithDetectAttempts(n int) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if n < 1 || n > 60 {
			return fmt.Errorf("detect attempts %d out of range [1, 60]", n)
		}
		cfg.detectAttempts = n

		return nil
	})
}

// WithDetectInterval sets the wait between detection polls.
// It should be between 10 milliseconds and 60 seconds.
func WithDetectInterval(d time.Duration) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if d < 10*time.Millisecond || d > 60*time.Second {
			return fmt.Errorf("detect interval %v out of range [10ms, 60s]", d)
		}
		cfg.detectInterval = d

		return nil
	})
}

// WithConfigureAttempts sets the number of re-polls waiting for the device
// to re-enumerate in accessory mode. It should be between 1 and 60.
func WithConfigureAttempts(n int) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if n < 1 || n > 60 {
			return fmt.Errorf("configure attempts %d out of range [1, 60]", n)
		}
		cfg.configureAttempts = n

		return nil
	})
}

// WithSettleDelay sets the wait after resetting an already-configured
// device. It should be between 0 and 30 seconds.
func WithSettleDelay(d time.Duration) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if d < 0 || d > 30*time.Second {
			return fmt.Errorf("settle delay %v out of range [0, 30s]", d)
		}
		cfg.settleDelay = d

		return nil
	})
}

// WithReadTimeout sets the deadline for a single bulk IN transfer.
// Zero disables the deadline. It should be at most 120 seconds.
func WithReadTimeout(d time.Duration) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if d < 0 || d > 120*time.Second {
			return fmt.Errorf("read timeout %v out of range [0, 120s]", d)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the deadline for a single bulk OUT transfer.
// Zero disables the deadline. It should be at most 120 seconds.
func WithWriteTimeout(d time.Duration) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if d < 0 || d > 120*time.Second {
			return fmt.Errorf("write timeout %v out of range [0, 120s]", d)
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithSleepFunc replaces the wait implementation used between detection
// polls and after device resets. Intended for tests.
func WithSleepFunc(sleep SleepFunc) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if sleep == nil {
			return fmt.Errorf("sleep func is nil")
		}
		cfg.sleep = sleep

		return nil
	})
}

// WithLogger sets the logger instance for the bridge.
func WithLogger(l logger.Logger) BridgeOption {
	return bridgeOptFunc(func(cfg *BridgeConfig) error {
		if l == nil {
			return fmt.Errorf("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}

// sleepContext is the default SleepFunc. It waits on a pooled timer so
// the per-poll allocation cost stays constant, and returns early when the
// context is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := pool.GetTimer(d)
	defer pool.PutTimer(t)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
