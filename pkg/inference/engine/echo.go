package engine

import (
	"context"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/pkg/errors"
)

// EchoEngine answers with the last user message. It needs no backend and is
// meant for demos and tests.
type EchoEngine struct {
	Prefix string
}

var _ Engine = (*EchoEngine)(nil)
var _ ModelLister = (*EchoEngine)(nil)

func NewEchoEngine() *EchoEngine {
	return &EchoEngine{}
}

func (e *EchoEngine) Chat(ctx context.Context, messages conversation.Messages) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	last, ok := messages.LastUserMessage()
	if !ok {
		return "", errors.New("echo engine: no user message")
	}
	return e.Prefix + last, nil
}

func (e *EchoEngine) ListModels(ctx context.Context) ([]string, error) {
	return []string{"echo"}, nil
}
