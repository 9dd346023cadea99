package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

// RetryPolicy bounds the embed retry loop: up to MaxAttempts calls, waiting
// MinWait doubled per attempt and clamped to MaxWait between them, plus a
// short Pause after every successful call to stay under provider rate
// limits.
type RetryPolicy struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration
	Pause       time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		MinWait:     4 * time.Second,
		MaxWait:     10 * time.Second,
		Pause:       100 * time.Millisecond,
	}
}

// WrapRetryToEmbedder decorates e with the retry policy. The exhausted-retry
// error wraps both ErrProvider and the provider's last error, so callers can
// classify with errors.Is and still see the cause.
func WrapRetryToEmbedder(e IEmbedder, policy RetryPolicy) IEmbedder {
	if e == nil {
		return nil
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &retryEmbedder{next: e, policy: policy}
}

type retryEmbedder struct {
	next   IEmbedder
	policy RetryPolicy
}

func (r *retryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		res, err := r.next.Embed(ctx, text, taskType)
		if err == nil {
			if r.policy.Pause > 0 {
				if serr := sleepCtx(ctx, r.policy.Pause); serr != nil {
					return res, nil
				}
			}
			return res, nil
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}
		wait := r.backoff(attempt)
		logutil.GetLogger(ctx).Warn("embedding call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if serr := sleepCtx(ctx, wait); serr != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrProvider, serr)
		}
	}
	return nil, fmt.Errorf("%w: after %d attempts: %w", apperr.ErrProvider, r.policy.MaxAttempts, lastErr)
}

func (r *retryEmbedder) ModelName() string {
	return r.next.ModelName()
}

// backoff doubles MinWait per completed attempt, clamped to MaxWait.
func (r *retryEmbedder) backoff(attempt int) time.Duration {
	wait := r.policy.MinWait
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= r.policy.MaxWait {
			return r.policy.MaxWait
		}
	}
	if r.policy.MaxWait > 0 && wait > r.policy.MaxWait {
		wait = r.policy.MaxWait
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
