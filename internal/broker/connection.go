package broker

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/vk/svcstorego/internal/ctxlog"
)

// DefaultSleepInterval is how long the loop waits between connection
// attempts.
const DefaultSleepInterval = 5 * time.Second

// recoverableErrnos are the network failures worth retrying. Anything else
// aborts the loop.
var recoverableErrnos = []error{
	syscall.ENETUNREACH,
	syscall.ENETRESET,
	syscall.ECONNABORTED,
	syscall.ECONNRESET,
	syscall.ETIMEDOUT,
	syscall.ECONNREFUSED,
	syscall.EHOSTUNREACH,
}

// RecoverableErrno reports whether err wraps one of the retryable network
// errno values.
func RecoverableErrno(err error) bool {
	for _, errno := range recoverableErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// Connection implements the (re-)connection logic shared by everything that
// talks to an external resource through a connector. The particular
// transport details stay with the caller: Dial performs one connection
// attempt and Info describes the target for logging.
type Connection struct {
	// Info is a textual description of the connection target.
	Info string
	// Dial performs a single connection attempt.
	Dial func(ctx context.Context) error
	// Recoverable answers whether an attempt's error is worth retrying.
	// Nil means the errno classification of RecoverableErrno.
	Recoverable func(err error) bool
	// SleepInterval overrides DefaultSleepInterval when positive.
	SleepInterval time.Duration

	attempts           int
	firstAttemptTime   time.Time
	hasValidConnection bool
}

// Establish runs the connecting loop until an attempt succeeds, the context
// is cancelled, or a non-recoverable error occurs.
//
// Progress is reported at warn level with the attempt count and the time
// spent so far; once connected after more than one attempt, a summary line
// is logged and the attempt counter resets so a later reconnect starts its
// accounting afresh.
func (c *Connection) Establish(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	sleep := c.SleepInterval
	if sleep <= 0 {
		sleep = DefaultSleepInterval
	}
	recoverable := c.Recoverable
	if recoverable == nil {
		recoverable = RecoverableErrno
	}

	if c.attempts == 0 {
		c.attempts = 1
	}
	c.firstAttemptTime = time.Now().UTC()

	for {
		err := c.Dial(ctx)
		if err == nil {
			c.onConnected(ctx)
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !recoverable(err) {
			logger.Error("No connection.", "target", c.Info, "error", err)
			return err
		}

		logger.Warn("Caught a recoverable connection error, will try to (re-)connect.",
			"target", c.Info,
			"error", err,
			"sleep", sleep,
			"attempts", c.attempts,
			"time_spent", time.Since(c.firstAttemptTime))
		c.attempts++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// onConnected reports how hard the connection was to get when it did not
// come up straight away.
func (c *Connection) onConnected(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	if c.attempts > 1 {
		logger.Warn("(Re-)connected.",
			"target", c.Info,
			"attempts", c.attempts,
			"time_spent", time.Since(c.firstAttemptTime))
	}

	c.hasValidConnection = true
	c.attempts = 1
}

// Attempts exposes the current attempt counter, mainly for tests.
func (c *Connection) Attempts() int {
	return c.attempts
}

// Connected reports whether Establish has succeeded since the last Reset.
func (c *Connection) Connected() bool {
	return c.hasValidConnection
}

// Reset marks the connection invalid so a later Establish starts over.
func (c *Connection) Reset() {
	c.hasValidConnection = false
	c.attempts = 0
}
