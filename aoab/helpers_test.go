package aoab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-aoab/logger"
)

// sleepRecorder is an instant SleepFunc recording each requested wait, so
// retry tests assert backoff behavior without real delays.
type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.waits = append(s.waits, d)

	return nil
}

// newTestConfig returns a config with an instant sleep and the given
// overrides applied.
func newTestConfig(t *testing.T, sleeper *sleepRecorder, opts ...BridgeOption) *BridgeConfig {
	t.Helper()

	all := append([]BridgeOption{
		WithSleepFunc(sleeper.sleep),
		WithLogger(logger.GetLogger()),
	}, opts...)

	cfg, err := NewBridgeConfig(all...)
	require.NoError(t, err)

	return cfg
}
