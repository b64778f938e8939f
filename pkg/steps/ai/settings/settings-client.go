package settings

import (
	"time"

	"github.com/huandu/go-clone"
	"gopkg.in/yaml.v3"
)

const DefaultTimeout = 5 * time.Minute

type ClientSettings struct {
	// Timeout bounds a single model call, connection and generation included.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

func NewClientSettings() *ClientSettings {
	return &ClientSettings{
		Timeout: DefaultTimeout,
	}
}

// UnmarshalYAML accepts either a duration string ("90s") or a number of seconds.
func (cs *ClientSettings) UnmarshalYAML(value *yaml.Node) error {
	aux := &struct {
		Timeout yaml.Node `yaml:"timeout,omitempty"`
	}{}
	if err := value.Decode(aux); err != nil {
		return err
	}
	if aux.Timeout.Kind == 0 {
		return nil
	}
	var seconds int
	if err := aux.Timeout.Decode(&seconds); err == nil {
		cs.Timeout = time.Duration(seconds) * time.Second
		return nil
	}
	var s string
	if err := aux.Timeout.Decode(&s); err != nil {
		return err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	cs.Timeout = d
	return nil
}

// MarshalYAML writes the timeout as a duration string, the form UnmarshalYAML
// reads back.
func (cs ClientSettings) MarshalYAML() (interface{}, error) {
	return struct {
		Timeout string `yaml:"timeout,omitempty"`
	}{Timeout: cs.Timeout.String()}, nil
}

func (cs *ClientSettings) Clone() *ClientSettings {
	return clone.Clone(cs).(*ClientSettings)
}
