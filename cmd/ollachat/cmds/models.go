package cmds

import (
	"fmt"

	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/go-go-golems/ollachat/pkg/inference/middleware"
	"github.com/spf13/cobra"
)

func NewModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models served by the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := createEngine()
			if err != nil {
				return err
			}
			lister, ok := e.(engine.ModelLister)
			if !ok {
				return middleware.ErrModelListingUnsupported
			}
			models, err := lister.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}
