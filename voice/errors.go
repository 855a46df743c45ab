package voice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrUnknownValue means the recognizer heard the audio but could not map it to text
	ErrUnknownValue = errors.New("could not understand audio")
	// ErrUpstreamTimeout means a recognition or synthesis call ran past its deadline
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrEmptyText       = errors.New("text is empty")
)

// upstreamError tags err as an upstream timeout when the call's own
// deadline fired (and not the caller's context)
func upstreamError(ctx context.Context, stage string, err error) error {
	if ctx.Err() == nil && isTimeout(err) {
		return fmt.Errorf("%s: %w; %w", stage, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s failed; %w", stage, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// withTimeout is context.WithTimeout that treats <= 0 as "no deadline"
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
