package ollama

import (
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings are the Ollama model options. The yaml keys are the option names
// the Ollama API expects.
type Settings struct {
	// Host is where the Ollama server listens. Empty means the client default
	// (OLLAMA_HOST or 127.0.0.1:11434).
	Host string `yaml:"-"`

	Mirostat      *int     `yaml:"mirostat,omitempty"`
	MirostatEta   *float64 `yaml:"mirostat_eta,omitempty"`
	MirostatTau   *float64 `yaml:"mirostat_tau,omitempty"`
	NumCtx        *int     `yaml:"num_ctx,omitempty"`
	NumGpu        *int     `yaml:"num_gpu,omitempty"`
	NumThread     *int     `yaml:"num_thread,omitempty"`
	RepeatLastN   *int     `yaml:"repeat_last_n,omitempty"`
	RepeatPenalty *float64 `yaml:"repeat_penalty,omitempty"`
	Temperature   *float64 `yaml:"temperature,omitempty"`
	Seed          *int     `yaml:"seed,omitempty"`
	Stop          []string `yaml:"stop,omitempty"`
	TfsZ          *float64 `yaml:"tfs_z,omitempty"`
	NumPredict    *int     `yaml:"num_predict,omitempty"`
	TopK          *int     `yaml:"top_k,omitempty"`
	TopP          *float64 `yaml:"top_p,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

// Options converts the set fields into the request options map.
func (s *Settings) Options() (map[string]interface{}, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode ollama options")
	}
	ret := map[string]interface{}{}
	if err := yaml.Unmarshal(b, &ret); err != nil {
		return nil, errors.Wrap(err, "could not decode ollama options")
	}
	return ret, nil
}
