package dispatch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// retryChannel wraps a channel with a bounded exponential-backoff retry
// policy, keeping retry logic out of the individual transports.
type retryChannel struct {
	inner           Channel
	maxRetries      uint64
	initialInterval time.Duration
	logger          *zap.Logger
}

// WithRetry decorates a channel with up to maxRetries additional attempts.
func WithRetry(inner Channel, maxRetries uint64, logger *zap.Logger) Channel {
	return &retryChannel{
		inner:           inner,
		maxRetries:      maxRetries,
		initialInterval: 500 * time.Millisecond,
		logger:          logger,
	}
}

func (r *retryChannel) Name() string {
	return r.inner.Name()
}

func (r *retryChannel) Send(ctx context.Context, msg Message) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initialInterval

	attempt := 0
	operation := func() error {
		attempt++
		err := r.inner.Send(ctx, msg)
		if err != nil && attempt <= int(r.maxRetries) {
			r.logger.Debug("Channel attempt failed, retrying",
				zap.String("channel", r.inner.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, r.maxRetries), ctx))
}
