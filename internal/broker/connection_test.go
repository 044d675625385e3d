package broker

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverableErrno(t *testing.T) {
	assert.True(t, RecoverableErrno(syscall.ECONNREFUSED))
	assert.True(t, RecoverableErrno(fmt.Errorf("dial tcp: %w", syscall.ETIMEDOUT)))
	assert.False(t, RecoverableErrno(errors.New("bad handshake")))
	assert.False(t, RecoverableErrno(syscall.EACCES))
}

func TestEstablish_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	conn := &Connection{
		Info:          "test-target",
		SleepInterval: time.Millisecond,
		Dial: func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return syscall.ECONNREFUSED
			}
			return nil
		},
	}

	assert.False(t, conn.Connected())

	err := conn.Establish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, conn.Connected())
	// The counter resets once connected so a later reconnect starts fresh.
	assert.Equal(t, 1, conn.Attempts())

	conn.Reset()
	assert.False(t, conn.Connected())
}

func TestEstablish_NonRecoverableAborts(t *testing.T) {
	dialErr := errors.New("protocol violation")
	calls := 0
	conn := &Connection{
		Info:          "test-target",
		SleepInterval: time.Millisecond,
		Dial: func(ctx context.Context) error {
			calls++
			return dialErr
		},
	}

	err := conn.Establish(context.Background())
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, 1, calls)
	assert.False(t, conn.Connected())
}

func TestEstablish_ContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	conn := &Connection{
		Info:          "test-target",
		SleepInterval: time.Hour,
		Dial: func(ctx context.Context) error {
			cancel()
			return syscall.ECONNREFUSED
		},
	}

	err := conn.Establish(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstablish_CustomRecoverableClassifier(t *testing.T) {
	calls := 0
	conn := &Connection{
		Info:          "test-target",
		SleepInterval: time.Millisecond,
		Recoverable:   func(err error) bool { return true },
		Dial: func(ctx context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("transient application error")
			}
			return nil
		},
	}

	err := conn.Establish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
