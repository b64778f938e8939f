package factory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/inference/middleware"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMessage(text string) conversation.Messages {
	return conversation.Messages{conversation.NewChatMessage(conversation.RoleUser, text)}
}

func TestStandardEngineFactory_SupportedProviders(t *testing.T) {
	factory := NewStandardEngineFactory()

	providers := factory.SupportedProviders()

	assert.Contains(t, providers, string(types.ApiTypeOllama))
	assert.Contains(t, providers, string(types.ApiTypeOpenAI))
	assert.Contains(t, providers, string(types.ApiTypeEcho))
}

func TestStandardEngineFactory_DefaultProvider(t *testing.T) {
	assert.Equal(t, string(types.ApiTypeOllama), NewStandardEngineFactory().DefaultProvider())
}

func TestStandardEngineFactory_CreateEngine_NilSettings(t *testing.T) {
	e, err := NewStandardEngineFactory().CreateEngine(nil)

	assert.Nil(t, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings cannot be nil")
}

func TestStandardEngineFactory_CreateEngine_Unsupported(t *testing.T) {
	s := settings.NewStepSettings()
	s.Chat.ApiType = "claude"

	_, err := NewStandardEngineFactory().CreateEngine(s)

	require.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "ollama, openai, echo")
}

func TestStandardEngineFactory_CreateEngine_InvalidSettings(t *testing.T) {
	s := settings.NewStepSettings()
	s.Chat.Engine = " "

	_, err := NewStandardEngineFactory().CreateEngine(s)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model specified")
}

func TestStandardEngineFactory_Echo(t *testing.T) {
	s := settings.NewStepSettings()
	s.Chat.ApiType = "ECHO"

	e, err := NewStandardEngineFactory().CreateEngine(s)
	require.NoError(t, err)
	assert.IsType(t, &middleware.EngineWithMiddleware{}, e)

	reply, err := e.Chat(context.Background(), userMessage("ping"))
	require.NoError(t, err)
	assert.Equal(t, "ping", reply)
}

func TestStandardEngineFactory_ExtraMiddlewareSeesSystemPrompt(t *testing.T) {
	s := settings.NewStepSettings()
	s.Chat.ApiType = types.ApiTypeEcho
	s.Chat.SystemPrompt = "You are terse."

	var seen conversation.Messages
	probe := func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(ctx context.Context, messages conversation.Messages) (string, error) {
			seen = messages
			return next(ctx, messages)
		}
	}

	e, err := NewStandardEngineFactory(probe).CreateEngine(s)
	require.NoError(t, err)
	_, err = e.Chat(context.Background(), userMessage("hello"))
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, conversation.RoleSystem, seen[0].Role)
	assert.Equal(t, "You are terse.", seen[0].Content)
}

func TestStandardEngineFactory_DoesNotRetainSettings(t *testing.T) {
	s := settings.NewStepSettings()
	s.Chat.ApiType = types.ApiTypeEcho

	_, err := NewStandardEngineFactory().CreateEngine(s)
	require.NoError(t, err)

	assert.Equal(t, types.ApiTypeEcho, s.Chat.ApiType)
	assert.Equal(t, settings.DefaultTimeout, s.Client.Timeout)
}

func TestStandardEngineFactory_Ollama(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Hello from ollama"},"done":true}` + "\n"))
		case "/api/tags":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"mistral:latest"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	t.Setenv("OLLAMA_HOST", "")

	temp := 0.2
	s := settings.NewStepSettings()
	s.Ollama.Host = srv.URL
	s.Chat.Temperature = &temp

	e, err := NewStandardEngineFactory().CreateEngine(s)
	require.NoError(t, err)

	reply, err := e.Chat(context.Background(), userMessage("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Hello from ollama", reply)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, false, got["stream"])
	options, ok := got["options"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 0.2, options["temperature"])
	messages, ok := got["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)

	lister, ok := e.(engine.ModelLister)
	require.True(t, ok)
	models, err := lister.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:latest", "mistral:latest"}, models)
}

func TestStandardEngineFactory_OllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer srv.Close()
	t.Setenv("OLLAMA_HOST", "")

	s := settings.NewStepSettings()
	s.Ollama.Host = srv.URL
	s.Chat.Engine = "nope"

	e, err := NewStandardEngineFactory().CreateEngine(s)
	require.NoError(t, err)

	_, err = e.Chat(context.Background(), userMessage("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStandardEngineFactory_OpenAI(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"llama3",` +
				`"choices":[{"index":0,"message":{"role":"assistant","content":"Hello from openai"},"finish_reason":"stop"}],` +
				`"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
		case "/v1/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"llama3","object":"model"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := settings.NewStepSettings()
	s.Chat.ApiType = types.ApiTypeOpenAI
	s.OpenAI.BaseURL = srv.URL + "/v1"
	s.OpenAI.MaxTokens = 64
	s.Client.Timeout = 5 * time.Second

	e, err := NewStandardEngineFactory().CreateEngine(s)
	require.NoError(t, err)

	reply, err := e.Chat(context.Background(), userMessage("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Hello from openai", reply)
	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, float64(64), got["max_tokens"])

	models, err := e.(engine.ModelLister).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3"}, models)
}

func TestStandardEngineFactory_OpenAIMissingBaseURL(t *testing.T) {
	s := settings.NewStepSettings()
	s.Chat.ApiType = types.ApiTypeOpenAI
	s.OpenAI.BaseURL = ""

	_, err := NewStandardEngineFactory().CreateEngine(s)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url")
}

func TestNewEngineFromStepSettings(t *testing.T) {
	s := settings.NewStepSettings()
	s.Chat.ApiType = types.ApiTypeEcho

	e, err := NewEngineFromStepSettings(s)

	require.NoError(t, err)
	assert.NotNil(t, e)
}
