package dependency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrDependencyUnavailable = errors.New("dependency unavailable")

// Fetch runs fn under timeout. Timeouts, cancellations and connection
// failures are reported as ErrDependencyUnavailable; any other error
// (domain sentinels such as not-found) is returned unchanged.
func Fetch[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	v, err := fn(ctx)
	if err != nil {
		if isUnavailable(ctx, err) {
			var zero T
			return zero, fmt.Errorf("%s: %w: %v", name, ErrDependencyUnavailable, err)
		}
		return v, err
	}
	return v, nil
}

// Exec is Fetch for calls without a result.
func Exec(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	_, err := Fetch(ctx, timeout, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func isUnavailable(ctx context.Context, err error) bool {
	if errors.Is(err, ErrDependencyUnavailable) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if ctx.Err() != nil {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
