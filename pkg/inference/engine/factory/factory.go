package factory

import (
	"strings"

	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/inference/middleware"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/ollama"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/openai"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

// EngineFactory creates chat engines based on step settings.
type EngineFactory interface {
	// CreateEngine creates an Engine for settings.Chat.ApiType.
	CreateEngine(settings *settings.StepSettings) (engine.Engine, error)

	// SupportedProviders returns the provider names this factory supports.
	SupportedProviders() []string

	// DefaultProvider is used when settings.Chat.ApiType is empty.
	DefaultProvider() string
}

// StandardEngineFactory builds ollama, openai and echo engines and wraps them
// with logging, timeout and system prompt middleware.
type StandardEngineFactory struct {
	Logger zerolog.Logger
	// Middlewares run inside the standard ones, closest to the engine.
	Middlewares []middleware.Middleware
}

var _ EngineFactory = (*StandardEngineFactory)(nil)

func NewStandardEngineFactory(middlewares ...middleware.Middleware) *StandardEngineFactory {
	return &StandardEngineFactory{
		Logger:      log.Logger,
		Middlewares: middlewares,
	}
}

func (f *StandardEngineFactory) CreateEngine(settings_ *settings.StepSettings) (engine.Engine, error) {
	if settings_ == nil {
		return nil, errors.New("settings cannot be nil")
	}
	settings_ = settings_.Clone()
	if settings_.Chat == nil {
		return nil, errors.New("chat settings cannot be nil")
	}
	if settings_.Chat.ApiType == "" {
		settings_.Chat.ApiType = types.ApiType(f.DefaultProvider())
	}
	if settings_.Client == nil {
		settings_.Client = settings.NewClientSettings()
	}

	provider := strings.ToLower(string(settings_.Chat.ApiType))
	if !types.ApiType(provider).IsValid() {
		return nil, errors.Wrapf(ErrUnsupportedProvider, "%s (supported: %s)",
			provider, strings.Join(f.SupportedProviders(), ", "))
	}
	if err := settings_.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid settings for provider %s", provider)
	}

	var base engine.Engine
	var err error
	switch types.ApiType(provider) {
	case types.ApiTypeOllama:
		base, err = ollama.NewOllamaEngine(settings_)
	case types.ApiTypeOpenAI:
		base, err = openai.NewOpenAIEngine(settings_)
	case types.ApiTypeEcho:
		base = engine.NewEchoEngine()
	}
	if err != nil {
		return nil, err
	}

	middlewares := []middleware.Middleware{
		middleware.NewLoggingMiddleware(f.Logger.With().
			Str("provider", provider).
			Str("model", settings_.Chat.Engine).
			Logger()),
		middleware.NewTimeoutMiddleware(settings_.Client.Timeout),
		middleware.NewSystemPromptMiddleware(settings_.Chat.SystemPrompt),
	}
	middlewares = append(middlewares, f.Middlewares...)

	return middleware.NewEngineWithMiddleware(base, middlewares...), nil
}

func (f *StandardEngineFactory) SupportedProviders() []string {
	ret := []string{}
	for _, t := range types.SupportedApiTypes() {
		ret = append(ret, string(t))
	}
	return ret
}

func (f *StandardEngineFactory) DefaultProvider() string {
	return string(types.ApiTypeOllama)
}
