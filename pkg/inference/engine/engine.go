package engine

import (
	"context"

	"github.com/go-go-golems/ollachat/pkg/conversation"
)

// Engine sends a conversation to a chat model and returns the assistant
// reply. The messages are sent verbatim and in order; engines do not keep
// state between calls.
type Engine interface {
	Chat(ctx context.Context, messages conversation.Messages) (string, error)
}

// ModelLister is implemented by engines whose backend can enumerate the
// models it serves.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, messages conversation.Messages) (string, error)

func (f EngineFunc) Chat(ctx context.Context, messages conversation.Messages) (string, error) {
	return f(ctx, messages)
}
