package cmds

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type upperRenderer struct{}

func (upperRenderer) Render(markdown string) (string, error) {
	return strings.ToUpper(markdown), nil
}

func runLoop(t *testing.T, e engine.Engine, input string, renderer Renderer) (*session.Session, string, string) {
	t.Helper()
	s := session.NewSession(e, history.NewMemoryStore(), session.WithDropFailedExchanges(true))
	var out, errOut bytes.Buffer
	loop := &ChatLoop{
		Session:  s,
		Model:    "llama3",
		In:       strings.NewReader(input),
		Out:      &out,
		Err:      &errOut,
		Renderer: renderer,
	}
	require.NoError(t, loop.Run(context.Background()))
	return s, out.String(), errOut.String()
}

func TestChatLoopExchangesAndExits(t *testing.T) {
	s, out, errOut := runLoop(t, engine.NewEchoEngine(), "hello\n\n   \nEXIT\nignored\n", nil)

	require.Equal(t,
		"🚀 Chatbot is running using model: llama3\n"+
			"Type 'exit' to stop\n"+
			"You: llama3: hello\n\n"+
			"You: You: You: Chat ended.\n",
		out)
	require.Empty(t, errOut)
	require.Len(t, s.Snapshot().Messages, 2)
}

func TestChatLoopEndsOnEOF(t *testing.T) {
	_, out, _ := runLoop(t, engine.NewEchoEngine(), "one", nil)

	require.Contains(t, out, "llama3: one\n\n")
	require.True(t, strings.HasSuffix(out, "You: \nChat ended.\n"))
}

func TestChatLoopReportsModelErrors(t *testing.T) {
	failing := engine.EngineFunc(func(ctx context.Context, messages conversation.Messages) (string, error) {
		return "", errors.New("connection refused")
	})

	s, out, errOut := runLoop(t, failing, "hello\nexit\n", nil)

	require.Equal(t, "Error: connection refused\n", errOut)
	require.NotContains(t, out, "llama3:")
	require.Empty(t, s.Snapshot().Messages)
}

func TestChatLoopUsesRenderer(t *testing.T) {
	_, out, _ := runLoop(t, engine.NewEchoEngine(), "shout\nexit\n", upperRenderer{})

	require.Contains(t, out, "llama3: SHOUT\n\n")
}

func TestChatLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := session.NewSession(engine.NewEchoEngine(), history.NewMemoryStore())
	var out bytes.Buffer
	loop := &ChatLoop{Session: s, Model: "m", In: blockingReader{}, Out: &out}

	err := loop.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
}

func TestChatLoopNeedsSession(t *testing.T) {
	err := (&ChatLoop{}).Run(context.Background())
	require.ErrorIs(t, err, session.ErrSessionNil)
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}

func TestAskForConfirmation(t *testing.T) {
	var out bytes.Buffer
	ok, err := AskForConfirmation(strings.NewReader("y\n"), &out, "Delete?")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, out.String(), "Delete? [y/n]")

	ok, err = AskForConfirmation(strings.NewReader("\n"), &out, "Delete?")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsTerminalForBuffers(t *testing.T) {
	require.False(t, IsTerminal(&bytes.Buffer{}))
}
