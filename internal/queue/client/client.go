package client

import (
	"context"
	"errors"
	"sync"

	"github.com/hibiken/asynq"
)

type ctxKey struct{}

var ErrNoClient = errors.New("asynq client is not configured")

var (
	globalClient *asynq.Client
	globalMu     sync.RWMutex
)

// WithClient binds c to ctx; it takes precedence over the global client.
func WithClient(ctx context.Context, c *asynq.Client) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// GetClient returns the client bound to ctx, or the global one set with
// SetClient. It's safe for concurrent use.
func GetClient(ctx context.Context) *asynq.Client {
	if c, ok := ctx.Value(ctxKey{}).(*asynq.Client); ok {
		return c
	}

	globalMu.RLock()
	defer globalMu.RUnlock()

	return globalClient
}

// SetClient replaces the global client and returns a function restoring the
// previous one.
func SetClient(c *asynq.Client) func() {
	globalMu.Lock()
	prev := globalClient
	globalClient = c
	globalMu.Unlock()

	return func() { SetClient(prev) }
}

func Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	c := GetClient(ctx)
	if c == nil {
		return nil, ErrNoClient
	}

	return c.EnqueueContext(ctx, task, opts...)
}
