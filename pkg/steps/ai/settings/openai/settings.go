package openai

import (
	"github.com/huandu/go-clone"
)

const DefaultBaseURL = "http://127.0.0.1:11434/v1"

type Settings struct {
	BaseURL string `yaml:"base_url,omitempty"`
	// APIKey may stay empty for local servers.
	APIKey string `yaml:"api_key,omitempty"`
	// MaxTokens caps the reply length, 0 leaves it to the server.
	MaxTokens int `yaml:"max_tokens,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{
		BaseURL: DefaultBaseURL,
	}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}
