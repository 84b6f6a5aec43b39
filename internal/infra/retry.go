package infra

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ConnectTimeout bounds how long a dependency may take to come up at boot.
const ConnectTimeout = 30 * time.Second

func retryConnect(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = ConnectTimeout
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
