package middleware

import (
	"context"
	"time"

	"github.com/go-go-golems/ollachat/pkg/conversation"
)

// NewTimeoutMiddleware bounds every model call. A zero or negative timeout
// disables it.
func NewTimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, messages conversation.Messages) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, messages)
		}
	}
}
