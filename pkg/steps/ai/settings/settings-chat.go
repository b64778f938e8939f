package settings

import (
	"strings"

	"github.com/go-go-golems/ollachat/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

const DefaultEngine = "llama3"

type ChatSettings struct {
	ApiType     types.ApiType `yaml:"api_type,omitempty"`
	Engine      string        `yaml:"engine,omitempty"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	TopP        *float64      `yaml:"top_p,omitempty"`
	// SystemPrompt is sent ahead of every request when set.
	SystemPrompt string `yaml:"system_prompt,omitempty"`
}

func NewChatSettings() *ChatSettings {
	return &ChatSettings{
		ApiType: types.ApiTypeOllama,
		Engine:  DefaultEngine,
	}
}

func (s *ChatSettings) Clone() *ChatSettings {
	return clone.Clone(s).(*ChatSettings)
}

func (s *ChatSettings) Validate() error {
	s.ApiType = types.ApiType(strings.ToLower(string(s.ApiType)))
	if !s.ApiType.IsValid() {
		return errors.Errorf("unsupported engine type %q (supported: %v)", s.ApiType, types.SupportedApiTypes())
	}
	if strings.TrimSpace(s.Engine) == "" {
		return errors.New("no model specified")
	}
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return errors.Errorf("temperature %v out of range [0, 2]", *s.Temperature)
	}
	if s.TopP != nil && (*s.TopP <= 0 || *s.TopP > 1) {
		return errors.Errorf("top-p %v out of range (0, 1]", *s.TopP)
	}
	return nil
}
