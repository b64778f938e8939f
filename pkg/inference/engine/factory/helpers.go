package factory

import (
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/steps/ai/settings"
)

// NewEngineFromStepSettings creates an engine with a StandardEngineFactory.
func NewEngineFromStepSettings(stepSettings *settings.StepSettings) (engine.Engine, error) {
	return NewStandardEngineFactory().CreateEngine(stepSettings)
}
