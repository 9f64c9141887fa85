// Package retry implements the reconnect policy shared by both chat
// sessions: an immediate retry after the first transient failure, then a
// fixed pause between attempts until success or cancellation.
package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"

	apperrors "minechat/errors"
)

const DefaultInterval = 10 * time.Second

// Policy tracks consecutive transient failures for one logical session.
// Not safe for concurrent use; each session owns its own Policy.
type Policy struct {
	log         *slog.Logger
	interval    time.Duration
	consecutive int
}

func NewPolicy(log *slog.Logger, interval time.Duration) *Policy {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Policy{log: log, interval: interval}
}

// Do runs op until it succeeds, fails fatally, or ctx is cancelled.
// Transient failures are logged and retried; the first one retries with no
// delay, every following consecutive one waits the fixed interval.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	for {
		err := op(ctx)
		if err == nil {
			p.Reset()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsTransient(err) {
			return err
		}
		if waitErr := p.Backoff(ctx, err); waitErr != nil {
			return waitErr
		}
	}
}

// Backoff records one transient failure and waits the appropriate delay.
// Returns the context error if cancelled while waiting.
func (p *Policy) Backoff(ctx context.Context, cause error) error {
	p.consecutive++
	if p.consecutive == 1 {
		p.log.Warn("Connection failed, retrying immediately", "error", cause)
		return ctx.Err()
	}

	p.log.Warn("Connection failed, retrying after pause",
		"error", cause, "pause", p.interval, "consecutive", p.consecutive)
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset clears the consecutive-failure count. Sessions call it once the
// connection is established so a later outage gets the immediate retry again.
func (p *Policy) Reset() {
	p.consecutive = 0
}

// IsTransient classifies an error as recoverable by reconnecting.
// Protocol-level failures (invalid token, unparseable replies) are final;
// anything the network did to us is worth another attempt.
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrMalformedReply):
		return false
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, net.ErrClosed):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
