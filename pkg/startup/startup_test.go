package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetrier(maxAttempts int) *Retrier {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewRetrier(logger, maxAttempts, time.Millisecond)
}

func TestStartSucceedsAfterRetries(t *testing.T) {
	calls := 0
	value, err := Start(context.Background(), testRetrier(4), "database", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "connected", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "connected", value)
	assert.Equal(t, 3, calls)
}

func TestStartGivesUp(t *testing.T) {
	calls := 0
	_, err := Start(context.Background(), testRetrier(2), "database", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("connection refused")
	})

	assert.ErrorContains(t, err, "dependency 'database' failed after 2 attempts: connection refused")
	assert.Equal(t, 2, calls)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), 5, time.Hour)

	_, err := Start(ctx, r, "database", func(context.Context) (int, error) {
		cancel()
		return 0, errors.New("connection refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRetrierRunsAtLeastOnce(t *testing.T) {
	calls := 0
	_, err := Start(context.Background(), testRetrier(0), "database", func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
