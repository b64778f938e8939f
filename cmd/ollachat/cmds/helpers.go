package cmds

import (
	"github.com/go-go-golems/ollachat/pkg/cmds"
	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/inference/engine/factory"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func openStore() (history.Store, error) {
	cfg := cmds.HistoryConfigFromViper(viper.GetViper())
	store, err := history.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not open history")
	}
	log.Debug().
		Str("backend", string(cfg.Backend)).
		Str("file", cfg.Path).
		Str("db", cfg.DBPath).
		Msg("opened history")
	return store, nil
}

func createEngine() (engine.Engine, *settings.StepSettings, error) {
	stepSettings, err := cmds.LoadStepSettings(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	e, err := factory.NewEngineFromStepSettings(stepSettings)
	if err != nil {
		return nil, nil, err
	}
	return e, stepSettings, nil
}

func closeStore(store history.Store) {
	if err := store.Close(); err != nil {
		log.Warn().Err(err).Msg("could not close history")
	}
}
