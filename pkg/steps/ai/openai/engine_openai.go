package openai

import (
	"context"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngine talks to any OpenAI compatible chat completion endpoint,
// including the /v1 endpoint Ollama exposes.
type OpenAIEngine struct {
	settings *settings.StepSettings
	client   *go_openai.Client
}

var _ engine.Engine = (*OpenAIEngine)(nil)
var _ engine.ModelLister = (*OpenAIEngine)(nil)

func NewOpenAIEngine(settings *settings.StepSettings) (*OpenAIEngine, error) {
	if settings == nil || settings.Chat == nil {
		return nil, errors.New("no chat settings")
	}
	if settings.OpenAI == nil {
		return nil, errors.New("no openai settings")
	}
	client, err := MakeClient(settings)
	if err != nil {
		return nil, err
	}
	return &OpenAIEngine{
		settings: settings,
		client:   client,
	}, nil
}

func MakeClient(settings *settings.StepSettings) (*go_openai.Client, error) {
	if settings.OpenAI.BaseURL == "" {
		return nil, errors.New("no base URL for openai")
	}
	config := go_openai.DefaultConfig(settings.OpenAI.APIKey)
	config.BaseURL = settings.OpenAI.BaseURL
	return go_openai.NewClientWithConfig(config), nil
}

func MakeCompletionRequest(settings *settings.StepSettings, messages conversation.Messages) go_openai.ChatCompletionRequest {
	msgs := make([]go_openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	req := go_openai.ChatCompletionRequest{
		Model:    settings.Chat.Engine,
		Messages: msgs,
	}
	if settings.Chat.Temperature != nil {
		req.Temperature = float32(*settings.Chat.Temperature)
	}
	if settings.Chat.TopP != nil {
		req.TopP = float32(*settings.Chat.TopP)
	}
	if settings.OpenAI.MaxTokens > 0 {
		req.MaxTokens = settings.OpenAI.MaxTokens
	}
	return req
}

func (e *OpenAIEngine) Chat(ctx context.Context, messages conversation.Messages) (string, error) {
	req := MakeCompletionRequest(e.settings, messages)
	log.Debug().
		Str("model", req.Model).
		Str("base_url", e.settings.OpenAI.BaseURL).
		Int("messages", len(req.Messages)).
		Msg("openai: sending chat completion")

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("openai: chat completion done")
	return resp.Choices[0].Message.Content, nil
}

func (e *OpenAIEngine) ListModels(ctx context.Context) ([]string, error) {
	list, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not list openai models")
	}
	ret := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ret = append(ret, m.ID)
	}
	return ret, nil
}
