package settings

import (
	"io"
	"strings"

	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings/ollama"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings/openai"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type factoryConfigFileWrapper struct {
	Factories *StepSettings
}

type StepSettings struct {
	Chat   *ChatSettings    `yaml:"chat,omitempty"`
	Client *ClientSettings  `yaml:"client,omitempty"`
	Ollama *ollama.Settings `yaml:"ollama,omitempty"`
	OpenAI *openai.Settings `yaml:"openai,omitempty"`
}

func NewStepSettings() *StepSettings {
	return &StepSettings{
		Chat:   NewChatSettings(),
		Client: NewClientSettings(),
		Ollama: ollama.NewSettings(),
		OpenAI: openai.NewSettings(),
	}
}

func NewStepSettingsFromYAML(s io.Reader) (*StepSettings, error) {
	settings_ := factoryConfigFileWrapper{
		Factories: NewStepSettings(),
	}
	if err := yaml.NewDecoder(s).Decode(&settings_); err != nil {
		return nil, err
	}

	return settings_.Factories, nil
}

// UpdateFromViper overrides the settings with every key set in v (flags,
// environment or config file).
func (ss *StepSettings) UpdateFromViper(v *viper.Viper) {
	if v.IsSet("engine") {
		ss.Chat.ApiType = types.ApiType(strings.ToLower(v.GetString("engine")))
	}
	if v.IsSet("model") {
		ss.Chat.Engine = v.GetString("model")
	}
	if v.IsSet("temperature") {
		t := v.GetFloat64("temperature")
		ss.Chat.Temperature = &t
	}
	if v.IsSet("top-p") {
		p := v.GetFloat64("top-p")
		ss.Chat.TopP = &p
	}
	if v.IsSet("system-prompt") {
		ss.Chat.SystemPrompt = v.GetString("system-prompt")
	}
	if v.IsSet("request-timeout") {
		ss.Client.Timeout = v.GetDuration("request-timeout")
	}
	if v.IsSet("ollama-host") {
		ss.Ollama.Host = v.GetString("ollama-host")
	}
	if v.IsSet("num-ctx") && v.GetInt("num-ctx") > 0 {
		n := v.GetInt("num-ctx")
		ss.Ollama.NumCtx = &n
	}
	if v.IsSet("seed") && v.GetInt("seed") != 0 {
		seed := v.GetInt("seed")
		ss.Ollama.Seed = &seed
	}
	if v.IsSet("openai-base-url") {
		ss.OpenAI.BaseURL = v.GetString("openai-base-url")
	}
	if v.IsSet("openai-api-key") {
		ss.OpenAI.APIKey = v.GetString("openai-api-key")
	}
	if v.IsSet("openai-max-tokens") {
		ss.OpenAI.MaxTokens = v.GetInt("openai-max-tokens")
	}
}

func (ss *StepSettings) Validate() error {
	if ss.Chat == nil {
		return errors.New("no chat settings")
	}
	if err := ss.Chat.Validate(); err != nil {
		return err
	}
	if ss.Client != nil && ss.Client.Timeout < 0 {
		return errors.New("request timeout must not be negative")
	}
	if ss.Chat.ApiType == types.ApiTypeOpenAI && (ss.OpenAI == nil || ss.OpenAI.BaseURL == "") {
		return errors.New("openai engine needs a base url")
	}
	return nil
}

func (ss *StepSettings) Clone() *StepSettings {
	ret := &StepSettings{}
	if ss.Chat != nil {
		ret.Chat = ss.Chat.Clone()
	}
	if ss.Client != nil {
		ret.Client = ss.Client.Clone()
	}
	if ss.Ollama != nil {
		ret.Ollama = ss.Ollama.Clone()
	}
	if ss.OpenAI != nil {
		ret.OpenAI = ss.OpenAI.Clone()
	}
	return ret
}

// GetMetadata summarizes the settings for logs and the web UI. Secrets are
// left out.
func (ss *StepSettings) GetMetadata() map[string]interface{} {
	metadata := make(map[string]interface{})

	if ss.Chat != nil {
		metadata["ai-api-type"] = string(ss.Chat.ApiType)
		metadata["ai-engine"] = ss.Chat.Engine
		if ss.Chat.Temperature != nil {
			metadata["ai-temperature"] = *ss.Chat.Temperature
		}
		if ss.Chat.TopP != nil {
			metadata["ai-top-p"] = *ss.Chat.TopP
		}
		metadata["ai-system-prompt-set"] = ss.Chat.SystemPrompt != ""
	}
	if ss.Client != nil && ss.Client.Timeout > 0 {
		metadata["timeout"] = ss.Client.Timeout.String()
	}
	if ss.Chat != nil && ss.Chat.ApiType == types.ApiTypeOllama && ss.Ollama != nil {
		if ss.Ollama.Host != "" {
			metadata["ollama-host"] = ss.Ollama.Host
		}
		if ss.Ollama.NumCtx != nil {
			metadata["ollama-num-ctx"] = *ss.Ollama.NumCtx
		}
		if ss.Ollama.Seed != nil {
			metadata["ollama-seed"] = *ss.Ollama.Seed
		}
	}
	if ss.Chat != nil && ss.Chat.ApiType == types.ApiTypeOpenAI && ss.OpenAI != nil {
		metadata["openai-base-url"] = ss.OpenAI.BaseURL
		metadata["openai-api-key-set"] = ss.OpenAI.APIKey != ""
	}

	return metadata
}
