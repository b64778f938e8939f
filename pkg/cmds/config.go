package cmds

import (
	"os"
	"path/filepath"

	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultHistoryFileName = "history.json"
	DefaultHistoryDBName   = "history.db"
	DefaultSettingsName    = "settings.yaml"
)

// DefaultDataDir is ~/.ollachat, or the working directory when there is no
// home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".ollachat")
}

// LoadStepSettings builds the model settings: defaults, then the optional
// settings file (flag `settings-file`, or settings.yaml in the user config
// dir), then every key set through viper.
func LoadStepSettings(v *viper.Viper) (*settings.StepSettings, error) {
	settingsFile := v.GetString("settings-file")
	explicit := settingsFile != ""
	if !explicit {
		configDir, err := os.UserConfigDir()
		if err == nil {
			settingsFile = filepath.Join(configDir, "ollachat", DefaultSettingsName)
		}
	}

	ret := settings.NewStepSettings()
	if settingsFile != "" {
		f, err := os.Open(settingsFile)
		switch {
		case err == nil:
			defer func() {
				_ = f.Close()
			}()
			ret, err = settings.NewStepSettingsFromYAML(f)
			if err != nil {
				return nil, errors.Wrapf(err, "could not parse settings file %s", settingsFile)
			}
			log.Debug().Str("file", settingsFile).Msg("loaded model settings")
		case explicit || !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "could not open settings file %s", settingsFile)
		}
	}

	ret.UpdateFromViper(v)
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// HistoryConfigFromViper reads the history-* keys.
func HistoryConfigFromViper(v *viper.Viper) history.Config {
	cfg := history.Config{
		Backend: history.Backend(v.GetString("history-backend")),
		Path:    v.GetString("history-file"),
		DBPath:  v.GetString("history-db"),
	}
	if cfg.Path == "" {
		cfg.Path = filepath.Join(DefaultDataDir(), DefaultHistoryFileName)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(DefaultDataDir(), DefaultHistoryDBName)
	}
	return cfg
}
