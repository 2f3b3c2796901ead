package pgd

import "context"

// RetryOnInvalidToken runs call once. If it fails with an invalid-token error,
// refresh is run and call is attempted exactly one more time; the outcome of
// that second attempt is returned whatever it is. Any other error is returned
// straight away.
func RetryOnInvalidToken[T any](
	ctx context.Context,
	call func(context.Context) (T, error),
	refresh func(context.Context) error,
) (T, error) {
	result, err := call(ctx)
	if err == nil || !IsInvalidToken(err) {
		return result, err
	}

	if err := refresh(ctx); err != nil {
		var zero T
		return zero, err
	}
	return call(ctx)
}
