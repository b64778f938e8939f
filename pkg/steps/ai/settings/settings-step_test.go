package settings

import (
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/ollachat/pkg/steps/ai/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewStepSettingsDefaults(t *testing.T) {
	ss := NewStepSettings()
	require.Equal(t, types.ApiTypeOllama, ss.Chat.ApiType)
	require.Equal(t, DefaultEngine, ss.Chat.Engine)
	require.Equal(t, DefaultTimeout, ss.Client.Timeout)
	require.NoError(t, ss.Validate())
}

func TestStepSettingsFromYAML(t *testing.T) {
	doc := `
factories:
  chat:
    api_type: openai
    engine: mistral
    temperature: 0.3
  client:
    timeout: 30
  openai:
    base_url: http://localhost:8080/v1
  ollama:
    num_ctx: 4096
`
	ss, err := NewStepSettingsFromYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, types.ApiTypeOpenAI, ss.Chat.ApiType)
	require.Equal(t, "mistral", ss.Chat.Engine)
	require.InDelta(t, 0.3, *ss.Chat.Temperature, 1e-9)
	require.Equal(t, 30*time.Second, ss.Client.Timeout)
	require.Equal(t, "http://localhost:8080/v1", ss.OpenAI.BaseURL)
	require.Equal(t, 4096, *ss.Ollama.NumCtx)
}

func TestClientTimeoutAcceptsDurationStrings(t *testing.T) {
	ss, err := NewStepSettingsFromYAML(strings.NewReader("factories:\n  client:\n    timeout: 90s\n"))
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, ss.Client.Timeout)
}

func TestUpdateFromViper(t *testing.T) {
	v := viper.New()
	v.Set("engine", "OpenAI")
	v.Set("model", "gpt-4o-mini")
	v.Set("temperature", 0.7)
	v.Set("request-timeout", "45s")
	v.Set("openai-api-key", "secret")
	v.Set("num-ctx", 2048)

	ss := NewStepSettings()
	ss.UpdateFromViper(v)

	require.Equal(t, types.ApiTypeOpenAI, ss.Chat.ApiType)
	require.Equal(t, "gpt-4o-mini", ss.Chat.Engine)
	require.InDelta(t, 0.7, *ss.Chat.Temperature, 1e-9)
	require.Equal(t, 45*time.Second, ss.Client.Timeout)
	require.Equal(t, "secret", ss.OpenAI.APIKey)
	require.Equal(t, 2048, *ss.Ollama.NumCtx)
	require.NoError(t, ss.Validate())

	md := ss.GetMetadata()
	require.Equal(t, true, md["openai-api-key-set"])
	for _, v := range md {
		require.NotEqual(t, "secret", v)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	ss := NewStepSettings()
	ss.Chat.ApiType = "claude"
	require.Error(t, ss.Validate())

	ss = NewStepSettings()
	ss.Chat.Engine = " "
	require.Error(t, ss.Validate())

	ss = NewStepSettings()
	temp := 3.0
	ss.Chat.Temperature = &temp
	require.Error(t, ss.Validate())
}

func TestCloneIsIndependent(t *testing.T) {
	ss := NewStepSettings()
	cp := ss.Clone()
	cp.Chat.Engine = "other"
	cp.OpenAI.BaseURL = "x"
	require.Equal(t, DefaultEngine, ss.Chat.Engine)
	require.NotEqual(t, "x", ss.OpenAI.BaseURL)
}

func TestClientTimeoutMissingKeepsDefault(t *testing.T) {
	ss, err := NewStepSettingsFromYAML(strings.NewReader("factories:\n  client: {}\n"))
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, ss.Client.Timeout)
}

func TestClientTimeoutSurvivesYAMLRoundTrip(t *testing.T) {
	cs := &ClientSettings{Timeout: 90 * time.Second}
	b, err := yaml.Marshal(cs)
	require.NoError(t, err)
	require.Equal(t, "timeout: 1m30s\n", string(b))

	decoded := NewClientSettings()
	require.NoError(t, yaml.Unmarshal(b, decoded))
	require.Equal(t, 90*time.Second, decoded.Timeout)
}
