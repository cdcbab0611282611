package ai

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"
)

// retryPolicy is the capped exponential backoff shared by all runtimes.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

// withDefaults fills unset fields from def.
func (p retryPolicy) withDefaults(def retryPolicy) retryPolicy {
	if p.attempts <= 0 {
		p.attempts = def.attempts
	}
	if p.base <= 0 {
		p.base = def.base
	}
	if p.max <= 0 {
		p.max = def.max
	}
	return p
}

var (
	hostedRetry = retryPolicy{attempts: 3, base: 500 * time.Millisecond, max: 4 * time.Second}
	localRetry  = retryPolicy{attempts: 2, base: 200 * time.Millisecond, max: time.Second}
)

// attempt performs one try. When retry is true and wait is positive, wait
// replaces the computed backoff (a server-supplied Retry-After).
type attempt func(ctx context.Context) (wait time.Duration, retry bool, err error)

// run calls fn until it succeeds, reports a permanent failure, or the policy
// runs out of attempts. The last error is returned.
func (p retryPolicy) run(ctx context.Context, fn attempt) error {
	backoff := p.base
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait, retry, err := fn(ctx)
		if err == nil {
			return nil
		}
		if !retry || n >= p.attempts {
			return err
		}
		if wait <= 0 {
			wait = min(jitter(backoff), p.max)
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
		backoff *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// jitter spreads d by +/- 20%.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return hostedRetry.base
	}
	return time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// retryAfter reads Retry-After as delay-seconds or an HTTP date.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0).Truncate(time.Second)
	}
	return 0
}
