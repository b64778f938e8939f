package ollama

import (
	"context"
	"os"
	"strings"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings"
	"github.com/jmorganca/ollama/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// OllamaEngine sends non-streaming chat requests to an Ollama server.
type OllamaEngine struct {
	Client   *api.Client
	Settings *settings.StepSettings
}

var _ engine.Engine = (*OllamaEngine)(nil)
var _ engine.ModelLister = (*OllamaEngine)(nil)

func NewOllamaEngine(settings *settings.StepSettings) (*OllamaEngine, error) {
	if settings == nil || settings.Chat == nil {
		return nil, errors.New("no chat settings")
	}
	client, err := MakeClient(settings)
	if err != nil {
		return nil, err
	}
	return &OllamaEngine{
		Client:   client,
		Settings: settings,
	}, nil
}

// MakeClient builds an Ollama client. The api package only reads the host
// from OLLAMA_HOST, so a configured host is exported there first.
func MakeClient(settings *settings.StepSettings) (*api.Client, error) {
	if settings.Ollama != nil && settings.Ollama.Host != "" {
		if err := os.Setenv("OLLAMA_HOST", strings.TrimRight(settings.Ollama.Host, "/")); err != nil {
			return nil, errors.Wrap(err, "could not set OLLAMA_HOST")
		}
	}
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, errors.Wrap(err, "could not create ollama client")
	}
	return client, nil
}

// MakeChatRequest converts messages and settings into a single-response
// Ollama chat request.
func MakeChatRequest(settings *settings.StepSettings, messages conversation.Messages) (*api.ChatRequest, error) {
	ollamaMessages := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		ollamaMessages = append(ollamaMessages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	options := map[string]interface{}{}
	if settings.Ollama != nil {
		o, err := settings.Ollama.Options()
		if err != nil {
			return nil, err
		}
		options = o
	}
	// chat-level sampling settings win over ollama-specific ones
	if settings.Chat.Temperature != nil {
		options["temperature"] = *settings.Chat.Temperature
	}
	if settings.Chat.TopP != nil {
		options["top_p"] = *settings.Chat.TopP
	}

	stream := false
	return &api.ChatRequest{
		Model:    settings.Chat.Engine,
		Messages: ollamaMessages,
		Stream:   &stream,
		Options:  options,
	}, nil
}

func (e *OllamaEngine) Chat(ctx context.Context, messages conversation.Messages) (string, error) {
	req, err := MakeChatRequest(e.Settings, messages)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Interface("options", req.Options).
		Msg("ollama: sending chat request")

	var sb strings.Builder
	err = e.Client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "ollama chat with model %s failed", req.Model)
	}
	return sb.String(), nil
}

func (e *OllamaEngine) ListModels(ctx context.Context) ([]string, error) {
	resp, err := e.Client.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not list ollama models")
	}
	ret := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ret = append(ret, m.Name)
	}
	return ret, nil
}
