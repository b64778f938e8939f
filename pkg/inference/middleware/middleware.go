package middleware

import (
	"context"
	"errors"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
)

var ErrModelListingUnsupported = errors.New("engine cannot list models")

// HandlerFunc sends messages to a model and returns the reply.
type HandlerFunc func(ctx context.Context, messages conversation.Messages) (string, error)

// Middleware wraps a HandlerFunc with additional functionality.
// Middleware are applied in order: Chain(m1, m2, m3) results in m1(m2(m3(handler))).
type Middleware func(HandlerFunc) HandlerFunc

// Chain composes multiple middleware into a single HandlerFunc.
func Chain(handler HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func engineHandlerFunc(e engine.Engine) HandlerFunc {
	return func(ctx context.Context, messages conversation.Messages) (string, error) {
		return e.Chat(ctx, messages)
	}
}

// EngineWithMiddleware wraps an Engine with a middleware chain.
type EngineWithMiddleware struct {
	engine  engine.Engine
	handler HandlerFunc
}

var _ engine.Engine = (*EngineWithMiddleware)(nil)
var _ engine.ModelLister = (*EngineWithMiddleware)(nil)

func NewEngineWithMiddleware(e engine.Engine, middlewares ...Middleware) *EngineWithMiddleware {
	return &EngineWithMiddleware{
		engine:  e,
		handler: Chain(engineHandlerFunc(e), middlewares...),
	}
}

func (e *EngineWithMiddleware) Chat(ctx context.Context, messages conversation.Messages) (string, error) {
	return e.handler(ctx, messages)
}

// ListModels forwards to the wrapped engine when it can list models.
func (e *EngineWithMiddleware) ListModels(ctx context.Context) ([]string, error) {
	if lister, ok := e.engine.(engine.ModelLister); ok {
		return lister.ListModels(ctx)
	}
	return nil, ErrModelListingUnsupported
}
