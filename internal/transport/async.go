package transport

import "context"

// AsyncClient is the goroutine-based flavor of the shim used only by
// tests that want to simulate concurrent server calls without a real
// network round trip; production code always uses the blocking Client.
type AsyncClient struct {
	inner Requester
}

// NewAsyncClient wraps an existing Requester (typically a fake for tests)
// so calls run on their own goroutine and report back over a channel.
func NewAsyncClient(inner Requester) *AsyncClient {
	return &AsyncClient{inner: inner}
}

// PostAsync runs Post on a new goroutine and returns a channel that
// receives exactly one error (nil on success) once it completes.
func (a *AsyncClient) PostAsync(ctx context.Context, path string, out any) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- a.inner.Post(ctx, path, out)
	}()
	return ch
}

// PostbAsync runs Postb on a new goroutine and returns a channel that
// receives exactly one error (nil on success) once it completes.
func (a *AsyncClient) PostbAsync(ctx context.Context, path string, body any, out any) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- a.inner.Postb(ctx, path, body, out)
	}()
	return ch
}
